// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestNew(t *testing.T) {
	type testcase struct {
		input  error
		expect string
	}

	var tests = []testcase{
		{input: nil, expect: ""},
		{input: errors.New("sim: invalid address"), expect: EADDRINVALID},
		{input: errors.New("sim: send from crashed node"), expect: ESENDFROMCRASHED},
		{input: errors.New("sim: deliver to crashed node"), expect: EDELIVERTOCRASHED},
		{input: errors.New("sim: malformed packet"), expect: EBADPACKET},
		{input: errors.New("sim: node crash"), expect: ENODECRASH},
		{input: fmt.Errorf("sim: node factory failed: %v", errors.New("boom")), expect: EFACTORYFAILURE},
		{input: errors.New("sim: malformed user input: \"1 1\""), expect: EUSERINPUTMALFORMED},
		{input: &os.PathError{Op: "open", Path: "/no/such/file", Err: errENOENT}, expect: ENOENT},
		{input: &os.PathError{Op: "open", Path: "/root/secret", Err: errEACCES}, expect: EACCES},
		{input: &os.PathError{Op: "read", Path: "/tmp", Err: errEISDIR}, expect: EISDIR},
		{input: errors.New("unknown error"), expect: EGENERIC},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.input), func(t *testing.T) {
			got := New(tt.input)
			if got != tt.expect {
				t.Errorf("New(%v) = %v; want %v", tt.input, got, tt.expect)
			}
		})
	}
}
