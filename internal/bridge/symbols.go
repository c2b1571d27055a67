package bridge

import "strings"

// symbolMap 把平台合约代码映射为下游对冲端使用的符号。
var symbolMap = map[string]string{
	"NQ":     "USTECH",
	"ES":     "US500",
	"YM":     "US30",
	"GC":     "XAUUSD",
	"USTECH": "USTECH",
	"US500":  "US500",
	"US30":   "US30",
	"XAUUSD": "XAUUSD",
}

var contractMonths = []string{"MAR", "JUN", "SEP", "DEC"}

// MapSymbol 清洗并映射合约符号：
// 去掉 '@' 之后的后缀；已是下游格式的原样返回；
// 带交割月份的合约保留原符号；其余提取字母部分查表，查不到时返回字母部分。
func MapSymbol(symbol string) string {
	clean := strings.TrimSpace(strings.SplitN(symbol, "@", 2)[0])

	for _, mapped := range symbolMap {
		if clean == mapped {
			return clean
		}
	}

	for _, month := range contractMonths {
		if strings.Contains(clean, month) {
			return clean
		}
	}

	var base strings.Builder
	for _, r := range clean {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			base.WriteRune(r)
		}
	}

	if mapped, ok := symbolMap[base.String()]; ok {
		return mapped
	}
	return base.String()
}
