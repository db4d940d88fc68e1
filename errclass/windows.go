//go:build windows

// SPDX-License-Identifier: GPL-3.0-or-later

package errclass

import "golang.org/x/sys/windows"

const (
	errENOENT = windows.ERROR_FILE_NOT_FOUND
	errEACCES = windows.ERROR_ACCESS_DENIED
	errEISDIR = windows.ERROR_DIRECTORY
)
