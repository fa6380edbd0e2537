// Package resolver answers whether a symbol is already annotated outside of
// the analyzed code.
//
// Two sources are consulted. The global store is built once from the
// annotation folders of a ReSharper installation and persisted to a disk
// cache that is reused while no annotation file is newer than it. The
// side-by-side store holds one map per referenced assembly, read from
// {Assembly}.ExternalAnnotations.xml next to the assembly and dropped as soon
// as that file changes on disk.
package resolver
