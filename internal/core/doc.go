// Package core validates CSV files before they are imported.
//
// Validation is a cheap, streaming gate that runs before any upload or
// database work. It answers two questions without reading the whole file into
// memory: is the file small enough to import, and does it look like a CSV
// with a usable header? It has no UI or transport dependencies and can be used
// by web handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized as a small pipeline:
//
//   - Source: something that can be opened more than once ([FileSource],
//     [BytesSource], [MultipartSource]).
//   - ByteStream: a cancellable chunked reader over one opening of a Source.
//   - Line extraction: [ReadLines] returns the first N non-blank lines and
//     stops reading as soon as they are available.
//   - Row counting: [CountRows] counts logical CSV rows and stops as soon
//     as the limit is crossed.
//
// Both passes refuse lines longer than [Policy].MaxLineBytes with
// [ErrLineTooLong], so memory stays bounded on input without line breaks.
//   - Preview parsing: [ParsePreview] turns the extracted lines into a
//     header and keyed preview rows.
//   - Validation: [Validator.Validate] runs the passes in order and returns
//     a [Result].
//
// # Usage
//
//	v, err := core.NewValidator(core.DefaultPolicy())
//	if err != nil {
//	    return err
//	}
//	src, err := core.FileSource("customers.csv")
//	if err != nil {
//	    return err
//	}
//	res := v.Validate(ctx, src)
//	if !res.OK {
//	    fmt.Println(res.Message)
//	}
//
// A [Session] wraps a Validator for interactive use, where picking a new file
// cancels the validation of the previous one.
//
// # Error Handling
//
// Validation failures are reported as a [Reason] on the [Result], never as a
// Go error. [MapError] maps technical errors to user-facing messages with a
// support code:
//
//   - CSV001-CSV004: Validation outcomes (row limit, too few rows, header, read)
//   - FILE001, FILE004: File errors (size, missing)
//   - UPL002-UPL005: Capacity errors (busy, cancelled, timeout)
package core
