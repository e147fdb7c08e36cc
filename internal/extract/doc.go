// Package extract recovers a single structured object from free-form model
// output and repairs its shape against a list of required keys.
//
// Model replies often wrap the object in prose or markdown fences. The
// default BraceSpan extractor parses the text between the first '{' and the
// last '}'. StrictFirst tries the whole trimmed text first and only falls
// back to span scanning when that fails, which tolerates stray braces in
// surrounding prose as long as the reply is otherwise bare JSON.
//
// Repair is structural only: every required key missing from the object is
// added with an empty value (an empty list when the key name ends in "s",
// otherwise an empty string). Present keys are never overwritten.
package extract
