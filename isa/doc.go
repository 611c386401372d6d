// Package isa defines the instruction set of the 24-bit machine: the
// opcode catalogue, operand shapes, and the binary instruction encoding
// shared by the assembler and the execution engine.
package isa
