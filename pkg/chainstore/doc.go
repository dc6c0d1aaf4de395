/*
Package chainstore persists trained chains from the chain package.

It stores any number of named string-symbol models in a single SQLite
database, with a shared symbol table and interned state keys, and supports
JSON export and import for transferring models between databases. The core
engine defines no persistence of its own; this package is the integration
layer for it.
*/
package chainstore
