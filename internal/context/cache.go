package context

import (
	"github.com/cespare/xxhash/v2"

	"github.com/nrfconnect/kconfiglsp/internal/confparse"
)

// contentHash folds path/content pairs into one digest, the key used
// both to skip a redundant Kconfig reparse and a redundant .conf
// re-scan: two states hash equal only if every visited file's content
// matches exactly, in the same order.
func contentHash(pairs [][2]string) uint64 {
	d := xxhash.New()
	for _, pair := range pairs {
		d.WriteString(pair[0])
		d.Write([]byte{0})
		d.WriteString(pair[1])
		d.Write([]byte{0})
	}
	return d.Sum64()
}

// hashFiles reads every path in paths through open and folds them into
// one contentHash. ok is false if any file could not be read, in which
// case the caller should fall back to doing the real work rather than
// trust a partial hash.
func hashFiles(open func(string) (string, error), paths []string) (uint64, bool) {
	pairs := make([][2]string, 0, len(paths))
	for _, p := range paths {
		content, err := open(p)
		if err != nil {
			return 0, false
		}
		pairs = append(pairs, [2]string{p, content})
	}
	return contentHash(pairs), true
}

// confFileCacheEntry memoizes one .conf path's last confparse.Parse
// result by content hash, so applyConfStack re-applying an unchanged
// file (e.g. a loadConfig triggered by a sibling file's edit) skips
// re-scanning its lines.
type confFileCacheEntry struct {
	hash uint64
	file *confparse.File
}

// parseConfCached returns confparse.Parse(path, content), reusing
// ctx's cached result when content hashes identically to the last
// call for this path.
func parseConfCached(ctx *Context, path, content string) *confparse.File {
	h := xxhash.Sum64String(content)
	if e, ok := ctx.confCache[path]; ok && e.hash == h {
		return e.file
	}
	f := confparse.Parse(path, content)
	ctx.confCache[path] = confFileCacheEntry{hash: h, file: f}
	return f
}
