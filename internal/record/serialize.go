package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field 为序列化输出中的一个键值对，名字要求已经是小写。
type Field struct {
	Name  string
	Value interface{}
}

// Fields 是按插入顺序排列的字段表，取代通过反射枚举结构体字段的做法，
// 输出顺序因此是静态可知且确定的。
type Fields []Field

// Append 追加一个字段并返回新的字段表。
func (f Fields) Append(name string, value interface{}) Fields {
	return append(f, Field{Name: name, Value: value})
}

// Serialize 将字段表编码成单个扁平 JSON 对象。
// 该函数是纯函数，不做 I/O，对类型良好的输入不会失败。
// 注意：字符串按原文引用，不转义内嵌引号，字段值不得携带引号等特殊字符。
func Serialize(fields Fields) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, field := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(field.Name)
		b.WriteString(`":`)
		b.WriteString(serializeValue(field.Value))
	}
	b.WriteByte('}')
	return b.String()
}

func serializeValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return `"` + v + `"`
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		return `"` + v.Format(time.RFC3339Nano) + `"`
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		// 默认数值转文本：1.0 输出为 1，15000.50 输出为 15000.5。
		return strconv.FormatFloat(v, 'f', -1, 64)
	case Fields:
		return Serialize(v)
	default:
		return fmt.Sprintf("%q", fmt.Sprint(v))
	}
}
