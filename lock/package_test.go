// SPDX-License-Identifier: Unlicense OR MIT

package lock_test

import (
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
