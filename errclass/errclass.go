// SPDX-License-Identifier: GPL-3.0-or-later

/*
Package errclass implements error classification for this module's own
error kinds (spec.md §7) plus the handful of OS errors that can occur
opening a command script file.

The general idea, kept from the teacher's network-errno classifier, is
to map golang errors to an enum of short strings suitable as a
structured-log field, rather than logging [error.Error] text that
varies with wrapping.

# Design Principles

1. Preserve the original error in the `err` log field; this package
   only supplies the `errClass` field alongside it.

2. Classify by substring match on the rendered error message rather
   than [errors.Is] against package sim's sentinels: this package does
   not import sim, and a message substring matches both bare sentinels
   and the %w-wrapped forms sim's call sites produce.

3. Map the nil error to an empty string.

# Sim Error Kinds

One class per sentinel in package sim's errors.go: [EADDRINVALID],
[ESENDFROMCRASHED], [EDELIVERTOCRASHED], [EBADPACKET], [ENODECRASH],
[EFACTORYFAILURE], [EUSERINPUTMALFORMED].

# Script File Errors

[ENOENT], [EACCES], [EISDIR] classify failures opening a command
script file, the one place this module still touches the OS. The
actual errno constants backing the substring match are defined in
platform-specific files:

- unix.go for Unix-like systems using x/sys/unix

- windows.go for Windows systems using x/sys/windows

# Fallback

[EGENERIC] for unclassified errors.
*/
package errclass

import "strings"

const (
	// EADDRINVALID classifies [sim.ErrInvalidAddress].
	EADDRINVALID = "EADDRINVALID"

	// ESENDFROMCRASHED classifies [sim.ErrSendFromCrashed].
	ESENDFROMCRASHED = "ESENDFROMCRASHED"

	// EDELIVERTOCRASHED classifies [sim.ErrDeliverToCrashed].
	EDELIVERTOCRASHED = "EDELIVERTOCRASHED"

	// EBADPACKET classifies [sim.ErrBadPacket].
	EBADPACKET = "EBADPACKET"

	// ENODECRASH classifies [sim.ErrNodeCrash].
	ENODECRASH = "ENODECRASH"

	// EFACTORYFAILURE classifies [sim.ErrFactoryFailure].
	EFACTORYFAILURE = "EFACTORYFAILURE"

	// EUSERINPUTMALFORMED classifies [sim.ErrUserInputMalformed].
	EUSERINPUTMALFORMED = "EUSERINPUTMALFORMED"

	// ENOENT classifies "no such file or directory" opening a script.
	ENOENT = "ENOENT"

	// EACCES classifies a permission-denied opening a script.
	EACCES = "EACCES"

	// EISDIR classifies a script path that names a directory.
	EISDIR = "EISDIR"

	// EGENERIC is the generic, unclassified error.
	EGENERIC = "EGENERIC"
)

// substringMap classifies an error by the first matching substring of
// its rendered message. Order matters only in that every key here is
// distinct enough not to collide; see errclass_test.go.
var substringMap = map[string]string{
	"sim: invalid address":        EADDRINVALID,
	"sim: send from crashed node": ESENDFROMCRASHED,
	"sim: deliver to crashed node": EDELIVERTOCRASHED,
	"sim: malformed packet":       EBADPACKET,
	"sim: node crash":             ENODECRASH,
	"sim: node factory failed":    EFACTORYFAILURE,
	"sim: malformed user input":   EUSERINPUTMALFORMED,
	errENOENT.Error():             ENOENT,
	errEACCES.Error():             EACCES,
	errEISDIR.Error():             EISDIR,
}

// New classifies err into one of the constants above. It returns the
// empty string for a nil error and [EGENERIC] for anything it does not
// recognize.
func New(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for substring, class := range substringMap {
		if strings.Contains(msg, substring) {
			return class
		}
	}
	return EGENERIC
}
