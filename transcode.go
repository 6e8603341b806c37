// Package transcode converts between human-typed literal text and the SCALE
// wire format of a smart contract, driven by the contract's metadata.
//
// The metadata document is loaded once into an immutable registry of type
// definitions and callable items (constructors, messages and events). The
// Transcoder resolves callables by name and moves values between three forms:
//   - literal text, as typed on a command line
//   - value.Value, an untyped tree shared by the parser, encoder and decoder
//   - bytes, as submitted to or returned from a node
//
// # Basic Usage
//
// Load metadata, encode a call and decode its result:
//
//	tc, err := transcode.NewFromFile("erc20.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, err := tc.EncodeCall("transfer", []string{
//	    "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d",
//	    "1000",
//	})
//
//	text, err := tc.DecodeReturn("transfer", output)
//	// Ok(())
//
// # Literal Syntax
//
// Arguments use the grammar of the literal package: (), true, 42, -7, 0x00ff,
// "text", [a, b], (a, b), { name: value }, None, Some(v), Err { reason: "x" }.
// Every decoded value renders back into this syntax, and re-encoding the
// rendering reproduces the original bytes.
//
// # Type Coercion
//
// Literals carry no types. The encoder matches each value against the target
// type definition:
//
//   - Integers must fit the target width and sign, otherwise ErrOverflow.
//     A bare byte string is read as a big-endian unsigned integer.
//   - Named composites take a map in any field order, or a tuple in
//     declaration order. Composites with a single unnamed field are
//     transparent.
//   - Variants take a tag naming one of their cases, otherwise ErrUnknownVariant.
//   - Sequences and arrays of u8 also take byte strings.
//
// # Errors
//
// Encoding failures are *EncodeError and decoding failures *DecodeError; both
// carry the path to the failing element and a Reason that errors.Is matches,
// such as ErrOverflow or ErrUnexpectedEOF. Failures of one call argument are
// wrapped in *ArgumentError. Name resolution fails with the registry's
// NotFoundError or AmbiguousError.
package transcode
