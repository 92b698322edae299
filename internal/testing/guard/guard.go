package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("SENSUS_TEST_MODE") == "" {
			_ = os.Setenv("SENSUS_TEST_MODE", "1")
		}
	})
}
