/*
 * Copyright 2026 the vmap authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package vmap exposes the host operating system's virtual memory system as
// a safe, ergonomic primitive for file I/O and for a double-mapped circular
// byte buffer.
//
// A caller projects a region of a file, or an anonymous region, into the
// process's address space with Options, reads and writes it through Map,
// MapMut, Span and SpanMut, and releases it deterministically by calling
// Close on the Map or MapMut. Ring and InfiniteRing build a single-producer,
// single-consumer byte queue on top of the same facade: the queue's
// capacity is mapped twice into adjacent virtual addresses so a wrap from
// the end back to the beginning looks to calling code like a linear walk.
//
// The package never retains a caller's file descriptor or handle beyond
// the duration of a single call, and never implicitly changes the
// protection of an existing mapping; converting a read-only view into a
// read-write one fails rather than silently re-mprotecting.
package vmap
