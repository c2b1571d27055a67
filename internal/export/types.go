package export

import (
	"fmt"
	"time"

	"trade-logger/internal/event"
	"trade-logger/internal/record"
)

// TradeRecord 是导出的最小单位：一份合约对应一条记录，
// 序列化并投递之后即丢弃。
type TradeRecord struct {
	ID            string
	BaseID        string
	Time          time.Time
	Action        event.Action
	Quantity      int
	Price         float64
	TotalQuantity int
	ContractNum   int
	Instrument    string
	Account       string
}

// decompose 把一次成交按合约数拆分成关联记录。
// 数量为 1 时只生成一条记录，ID 不带序号后缀；
// 数量 n > 1 时生成 n 条记录，数量固定为 1，共享 base_id 与 total_quantity，
// ID 为 base_id 加 1..n 的序号后缀。
func decompose(ev event.Execution, baseID string) []TradeRecord {
	total := ev.Quantity
	if total <= 1 {
		return []TradeRecord{{
			ID:            baseID,
			BaseID:        baseID,
			Time:          ev.Time,
			Action:        ev.Action,
			Quantity:      ev.Quantity,
			Price:         ev.Price,
			TotalQuantity: total,
			ContractNum:   1,
			Instrument:    ev.Instrument,
			Account:       ev.Account,
		}}
	}

	records := make([]TradeRecord, 0, total)
	for contract := 1; contract <= total; contract++ {
		records = append(records, TradeRecord{
			ID:            fmt.Sprintf("%s-%d", baseID, contract),
			BaseID:        baseID,
			Time:          ev.Time,
			Action:        ev.Action,
			Quantity:      1,
			Price:         ev.Price,
			TotalQuantity: total,
			ContractNum:   contract,
			Instrument:    ev.Instrument,
			Account:       ev.Account,
		})
	}
	return records
}

// Fields 按声明顺序构造拆分变体的序列化字段表。
func (r TradeRecord) Fields() record.Fields {
	return record.Fields{
		{Name: "id", Value: r.ID},
		{Name: "base_id", Value: r.BaseID},
		{Name: "time", Value: r.Time},
		{Name: "action", Value: string(r.Action)},
		{Name: "quantity", Value: r.Quantity},
		{Name: "price", Value: r.Price},
		{Name: "total_quantity", Value: r.TotalQuantity},
		{Name: "contract_num", Value: r.ContractNum},
		{Name: "instrument", Value: r.Instrument},
		{Name: "account", Value: r.Account},
	}
}

// singleFields 构造不拆分变体的字段表，字段顺序固定，下游按此顺序消费。
func singleFields(ev event.Execution, isExit bool) record.Fields {
	return record.Fields{
		{Name: "time", Value: ev.Time},
		{Name: "instrument", Value: ev.Instrument},
		{Name: "action", Value: string(ev.Action)},
		{Name: "quantity", Value: ev.Quantity},
		{Name: "price", Value: ev.Price},
		{Name: "account", Value: ev.Account},
		{Name: "is_exit", Value: isExit},
	}
}
