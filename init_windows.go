//go:build windows

package main

import "syscall"

// utf8CodePage makes accented French output and log lines readable in cmd.exe
const utf8CodePage = 65001

func init() {
	kernel32 := syscall.NewLazyDLL("kernel32.dll")
	for _, name := range []string{"SetConsoleOutputCP", "SetConsoleCP"} {
		proc := kernel32.NewProc(name)
		if proc.Find() != nil {
			continue
		}
		proc.Call(uintptr(utf8CodePage))
	}
}
