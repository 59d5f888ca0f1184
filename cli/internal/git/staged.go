package git

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"gitscribe/cli/internal/erruser"
)

const abbrevLen = 7

// entry is one side of a staged change.
type entry struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

type change struct {
	path     string
	from, to *entry // nil when the file is absent on that side
}

// Extractor produces the staged diff of the repository containing Dir.
// It satisfies diff.Source.
type Extractor struct {
	Dir string
}

// Diff opens the repository and returns its staged diff.
func (e Extractor) Diff(ctx context.Context) (string, error) {
	r, err := Open(e.Dir)
	if err != nil {
		return "", err
	}
	return r.StagedDiff(ctx)
}

// StagedDiff returns the unified diff between HEAD's tree and the index,
// ignoring whitespace. An unborn HEAD diffs against the empty tree.
func (r *Repo) StagedDiff(ctx context.Context) (string, error) {
	lines, err := r.stagedPatch(ctx)
	if err != nil {
		return "", erruser.New("Could not compute the staged diff.", err)
	}
	return Render(lines), nil
}

func (r *Repo) stagedPatch(ctx context.Context) ([]Line, error) {
	head, err := r.headEntries()
	if err != nil {
		return nil, err
	}
	staged, err := r.indexEntries()
	if err != nil {
		return nil, err
	}
	changes := diffEntries(head, staged)

	var out []Line
	for _, ch := range changes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lines, err := r.filePatch(ch)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrGitOperation, ch.path, err)
		}
		out = append(out, lines...)
	}
	return out, nil
}

// headEntries maps path to blob for every file in HEAD's tree.
func (r *Repo) headEntries() (map[string]entry, error) {
	out := make(map[string]entry)
	ref, err := r.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve HEAD: %w", ErrGitOperation, err)
	}
	commit, err := r.repo.CommitObject(ref.Hash())
	if err != nil {
		return nil, fmt.Errorf("%w: read HEAD commit: %w", ErrGitOperation, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: read HEAD tree: %w", ErrGitOperation, err)
	}
	err = tree.Files().ForEach(func(f *object.File) error {
		out[f.Name] = entry{hash: f.Hash, mode: f.Mode}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk HEAD tree: %w", ErrGitOperation, err)
	}
	return out, nil
}

// indexEntries maps path to blob for every index entry that is neither a
// submodule nor one side of an unresolved conflict (stages 1-3).
func (r *Repo) indexEntries() (map[string]entry, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("%w: read index: %w", ErrGitOperation, err)
	}
	out := make(map[string]entry, len(idx.Entries))
	for _, e := range idx.Entries {
		if e.Stage != 0 || e.Mode == filemode.Submodule {
			continue
		}
		out[e.Name] = entry{hash: e.Hash, mode: e.Mode}
	}
	return out, nil
}

// diffEntries returns the changed paths, sorted.
func diffEntries(head, staged map[string]entry) []change {
	var changes []change
	for path, h := range head {
		s, ok := staged[path]
		switch {
		case !ok:
			changes = append(changes, change{path: path, from: &h})
		case s != h:
			changes = append(changes, change{path: path, from: &h, to: &s})
		}
	}
	for path, s := range staged {
		if _, ok := head[path]; !ok {
			changes = append(changes, change{path: path, to: &s})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].path < changes[j].path })
	return changes
}

func (r *Repo) filePatch(ch change) ([]Line, error) {
	fromFile, err := r.file(ch.path, ch.from)
	if err != nil {
		return nil, err
	}
	toFile, err := r.file(ch.path, ch.to)
	if err != nil {
		return nil, err
	}

	header := fileHeader(ch)
	modeChanged := ch.from != nil && ch.to != nil && ch.from.mode != ch.to.mode
	structural := ch.from == nil || ch.to == nil || modeChanged

	binary, err := isBinary(fromFile, toFile)
	if err != nil {
		return nil, err
	}
	if binary {
		if ch.from != nil && ch.to != nil && ch.from.hash == ch.to.hash {
			return header, nil
		}
		return append(header, Line{
			Origin:  OriginBinary,
			Content: fmt.Sprintf("Binary files %s and %s differ\n", sidePath("a", ch.path, ch.from), sidePath("b", ch.path, ch.to)),
		}), nil
	}

	a, err := contents(fromFile)
	if err != nil {
		return nil, err
	}
	b, err := contents(toFile)
	if err != nil {
		return nil, err
	}
	body := hunks(splitText(a), splitText(b))
	if len(body) == 0 {
		if !structural {
			return nil, nil
		}
		return header, nil
	}
	out := append(header,
		Line{Origin: OriginFileHeader, Content: "--- " + sidePath("a", ch.path, ch.from) + "\n"},
		Line{Origin: OriginFileHeader, Content: "+++ " + sidePath("b", ch.path, ch.to) + "\n"},
	)
	return append(out, body...), nil
}

func fileHeader(ch change) []Line {
	lines := []Line{{Origin: OriginFileHeader, Content: fmt.Sprintf("diff --git a/%s b/%s\n", ch.path, ch.path)}}
	add := func(format string, args ...any) {
		lines = append(lines, Line{Origin: OriginFileHeader, Content: fmt.Sprintf(format, args...)})
	}
	fromHash, toHash := plumbing.ZeroHash, plumbing.ZeroHash
	switch {
	case ch.from == nil:
		add("new file mode %o\n", uint32(ch.to.mode))
		toHash = ch.to.hash
	case ch.to == nil:
		add("deleted file mode %o\n", uint32(ch.from.mode))
		fromHash = ch.from.hash
	default:
		fromHash, toHash = ch.from.hash, ch.to.hash
		if ch.from.mode != ch.to.mode {
			add("old mode %o\n", uint32(ch.from.mode))
			add("new mode %o\n", uint32(ch.to.mode))
		}
	}
	if fromHash == toHash {
		return lines
	}
	idx := fmt.Sprintf("index %s..%s", abbrev(fromHash), abbrev(toHash))
	if ch.from != nil && ch.to != nil && ch.from.mode == ch.to.mode {
		idx += fmt.Sprintf(" %o", uint32(ch.to.mode))
	}
	add("%s\n", idx)
	return lines
}

func abbrev(h plumbing.Hash) string {
	return h.String()[:abbrevLen]
}

func sidePath(side, path string, e *entry) string {
	if e == nil {
		return "/dev/null"
	}
	return side + "/" + path
}

func (r *Repo) file(path string, e *entry) (*object.File, error) {
	if e == nil {
		return nil, nil
	}
	blob, err := r.repo.BlobObject(e.hash)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", abbrev(e.hash), err)
	}
	return object.NewFile(path, e.mode, blob), nil
}

func isBinary(files ...*object.File) (bool, error) {
	for _, f := range files {
		if f == nil {
			continue
		}
		bin, err := f.IsBinary()
		if err != nil {
			return false, err
		}
		if bin {
			return true, nil
		}
	}
	return false, nil
}

func contents(f *object.File) (string, error) {
	if f == nil {
		return "", nil
	}
	return f.Contents()
}
