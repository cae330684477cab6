// Package nlog is the module's leveled logger, grounded on the teacher's
// cmn/nlog package (imported as nlog.Infoln/nlog.Errorln throughout
// ais/prxs3.go). It wraps the standard logger instead of replacing it:
// OSAL runs on hosts where nothing fancier than a UART or BSP console ring
// buffer is guaranteed to exist, so the sink stays pluggable via SetOutput.
package nlog

import (
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)

// SetOutput redirects the logger, e.g. to the BSP console pump or a ring
// buffer in test harnesses.
func SetOutput(w *log.Logger) { std = w }

func Infoln(args ...any)    { std.Println(append([]any{"I"}, args...)...) }
func Infof(f string, a ...any) { std.Printf("I "+f, a...) }

func Warningln(args ...any)    { std.Println(append([]any{"W"}, args...)...) }
func Warningf(f string, a ...any) { std.Printf("W "+f, a...) }

func Errorln(args ...any)    { std.Println(append([]any{"E"}, args...)...) }
func Errorf(f string, a ...any) { std.Printf("E "+f, a...) }

// Debugf corresponds to OSAL's OS_DEBUG printf: non-fatal anomaly
// reporting (ownership-key mismatch, symbol-table overflow, timer
// configuration warnings). It never panics or aborts -- per spec.md §7,
// internal bug conditions degrade to a logged error, nothing more.
func Debugf(f string, a ...any) {
	std.Printf("D "+f, a...)
}

// Assertf logs a would-be assertion failure without panicking.
func Assertf(cond bool, f string, a ...any) {
	if !cond {
		std.Printf("ASSERT "+f, a...)
	}
}
