//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import "golang.org/x/sys/unix"

const (
	errENOENT = unix.ENOENT
	errEACCES = unix.EACCES
	errEISDIR = unix.EISDIR
)
