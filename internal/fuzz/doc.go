// Package fuzztests houses Go fuzz harnesses for the input boundary of
// nullcheck: external annotation XML, YAML symbol dumps and the check run
// over whatever model a dump produces. The goal is to guard against panics
// and hangs on arbitrary inputs.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/annotations/xmldoc, internal/host/memhost,
// internal/driver, internal/resolver.

package fuzztests
