// Package core defines the SQL syntax tree shared by the parser, the
// formatter and the lineage engine.
//
// The Golden Rule: pkg/core imports ONLY pkg/token and stdlib.
// All other packages depend on core, not the reverse.
package core
