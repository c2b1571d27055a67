package token

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// 同一毫秒内生成的 ID 通过单调熵保持递增。
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New 生成一个基于时间戳加随机扰动的关联 ID。
// 唯一性是概率性的，只用于下游记录的关联，不可当作加密标识使用。
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		// 只有时间回拨或熵源耗尽才会走到这里。
		panic(err)
	}
	return id.String()
}
