// Package storage persists the movie catalog. Every backend satisfies the same
// capability set (List, Add, Delete, Update) and follows the same strategy:
// each mutation reads the whole collection, changes it in memory and writes
// the whole collection back. There is no locking and no atomic rename, so two
// writers race and the last full rewrite wins, and a crash in the middle of a
// file write can leave a truncated file behind.
package storage
