// Package memory provides per-user fact retrieval and write-back for the
// relay pipeline.
//
// Facts are free-text snippets owned by a store, namespaced by user
// identity and queryable by semantic relevance. The pipeline reads facts
// about a message's sender before generation and appends the sender's
// message afterwards; no facts are retained locally across messages.
//
// Architecture:
//   - Store: search/append backend (hosted mem0 service, or embedded
//     chromem-go for credential-less local runs)
//   - Manager: orchestrates retrieval (truncation, snippet normalization,
//     failure degradation, optional result caching) and recording
//
// Retrieval never fails the pipeline: a store error degrades to an
// explicit unavailability marker so the composed prompt keeps its shape.
package memory
