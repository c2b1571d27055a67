package event

import "time"

// Action 表示订单买卖方向。
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
)

// Valid 判断方向取值是否合法。
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// Opposite 返回相反方向。
func (a Action) Opposite() Action {
	if a == ActionBuy {
		return ActionSell
	}
	return ActionBuy
}

// OrderState 表示订单生命周期状态。
type OrderState string

const (
	OrderStateWorking   OrderState = "Working"
	OrderStateFilled    OrderState = "Filled"
	OrderStateCancelled OrderState = "Cancelled"
	OrderStateRejected  OrderState = "Rejected"
)

// Execution 描述一次成交事件，由宿主平台推送，字段在事件产生后不再变化。
type Execution struct {
	Instrument string
	Account    string
	Action     Action
	Quantity   int
	Price      float64
	Time       time.Time
	OrderState OrderState
	OrderID    string
}
