package vdom

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

// Root is the path of the root node.
const Root = ""

const keyPrefix = "k:"

// ErrInvalidPath is returned when a path is malformed or does not resolve.
var ErrInvalidPath = errors.New("vdom: invalid path")

// Segment returns the path segment for a child at index with the given key.
// Keyed children are addressed by key so their paths survive reordering.
func Segment(index int, key string) string {
	if key != "" {
		return keyPrefix + url.PathEscape(key)
	}
	return strconv.Itoa(index)
}

// Join appends a segment to a parent path.
func Join(parent, segment string) string {
	return parent + "/" + segment
}

// Split returns the segments of a path. The root path has no segments.
func Split(path string) ([]string, error) {
	if path == Root {
		return nil, nil
	}
	if !strings.HasPrefix(path, "/") {
		return nil, ErrInvalidPath
	}
	segs := strings.Split(path[1:], "/")
	for _, s := range segs {
		if s == "" {
			return nil, ErrInvalidPath
		}
	}
	return segs, nil
}

// Parent splits a non-root path into its parent path and final segment.
func Parent(path string) (string, string, bool) {
	if path == Root {
		return "", "", false
	}
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", "", false
	}
	return path[:i], path[i+1:], true
}

// Lookup resolves a path against a tree.
func Lookup(root *Node, path string) (*Node, bool) {
	segs, err := Split(path)
	if err != nil || root == nil {
		return nil, false
	}
	n := root
	for _, seg := range segs {
		n = childBySegment(n, seg)
		if n == nil {
			return nil, false
		}
	}
	return n, true
}

func childBySegment(parent *Node, seg string) *Node {
	if strings.HasPrefix(seg, keyPrefix) {
		key, err := url.PathUnescape(seg[len(keyPrefix):])
		if err != nil {
			return nil
		}
		for _, c := range parent.Children {
			if c.Key == key {
				return c
			}
		}
		return nil
	}
	i, err := strconv.Atoi(seg)
	if err != nil || i < 0 || i >= len(parent.Children) {
		return nil
	}
	c := parent.Children[i]
	if c.Key != "" {
		// keyed children are only reachable by key
		return nil
	}
	return c
}
