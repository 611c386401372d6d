// Package vm executes binary images on the 24-bit machine: a 16-register
// file, a 64 KiB byte-addressable memory shared by code, data and a
// downward-growing stack, and a small system-call surface for console I/O.
package vm
