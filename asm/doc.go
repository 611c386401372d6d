// Package asm assembles source text into executable images. The
// pipeline is a lexer, a line-oriented parser that also resolves .equ
// equates and $(...) compile-time expressions, and a two-pass code
// generator that allocates variables to registers and patches label
// addresses.
package asm
