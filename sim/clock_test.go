// SPDX-License-Identifier: GPL-3.0-or-later

package sim

import "testing"

func TestClock(t *testing.T) {
	var c Clock
	if got := c.Now(); got != 0 {
		t.Fatalf("Now() = %d; want 0", got)
	}
	for i := 1; i <= 3; i++ {
		if got := c.Advance(); got != i {
			t.Fatalf("Advance() = %d; want %d", got, i)
		}
		if got := c.Now(); got != i {
			t.Fatalf("Now() = %d; want %d", got, i)
		}
	}
}
