// Package domain contains the core business entities for lectern:
// documents, chunks, retrieval results and the shared error taxonomy.
//
// Types here have no dependencies on infrastructure. Adapters and
// services depend on domain, never the other way around.
package domain
