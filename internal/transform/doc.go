// Package transform holds the record transformation pipeline: the Transformer
// capability, the name -> factory Registry used to resolve pipeline
// configuration, and the Pipeline that threads a record through its stages.
package transform
