package results

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/unixpickle/dist-sssp/graph"
)

// A FileStore keeps one text file per result in Dir.
//
// A result file holds the distances on the first line and
// the predecessors on the second, separated by spaces.
type FileStore struct {
	Dir string
}

// Path gets the file a key is stored in.
func (f *FileStore) Path(key Key) string {
	return filepath.Join(f.Dir, key.String()+".results")
}

// MatrixPath gets the file StoreMatrixSoft writes a
// key's graph to. The key's algorithm is ignored.
func (f *FileStore) MatrixPath(key Key) string {
	name := fmt.Sprintf("%d_%d_%d_%d.matrix", key.NumNodes, key.NumEdges, key.MaxWeight, key.Seed)
	return filepath.Join(f.Dir, name)
}

func (f *FileStore) StoreSoft(key Key, r *Record) error {
	return f.store(key, r, os.O_EXCL)
}

func (f *FileStore) StoreHard(key Key, r *Record) error {
	return f.store(key, r, os.O_TRUNC)
}

func (f *FileStore) Read(key Key) (*Record, error) {
	path := f.Path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", path, ErrNotFound)
	} else if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("read %s: expected two lines", path)
	}
	dist, err := parseInts(lines[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: distances: %w", path, err)
	}
	pred, err := parseInts(lines[1])
	if err != nil {
		return nil, fmt.Errorf("read %s: predecessors: %w", path, err)
	}
	r := &Record{Distances: dist, Predecessors: pred}
	if err := checkRecord(r); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return r, nil
}

// StoreMatrixSoft writes a graph's weight matrix next to
// its results, unless it was already written.
func (f *FileStore) StoreMatrixSoft(key Key, g *graph.Graph) error {
	return f.write(f.MatrixPath(key), os.O_EXCL, func(w *bufio.Writer) {
		for i := 0; i < g.NumNodes(); i++ {
			for _, weight := range g.Row(i) {
				fmt.Fprintf(w, "%3d ", weight)
			}
			w.WriteString("\n")
		}
	})
}

func (f *FileStore) store(key Key, r *Record, mode int) error {
	if err := checkRecord(r); err != nil {
		return err
	}
	return f.write(f.Path(key), mode, func(w *bufio.Writer) {
		writeInts(w, r.Distances)
		w.WriteString("\n")
		writeInts(w, r.Predecessors)
	})
}

func (f *FileStore) write(path string, mode int, fill func(w *bufio.Writer)) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|mode, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("write %s: %w", path, ErrExists)
	} else if err != nil {
		return err
	}
	w := bufio.NewWriter(file)
	fill(w)
	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func writeInts(w *bufio.Writer, values []int) {
	for _, x := range values {
		w.WriteString(strconv.Itoa(x))
		w.WriteString(" ")
	}
}

func parseInts(line string) ([]int, error) {
	fields := strings.Fields(line)
	res := make([]int, len(fields))
	for i, field := range fields {
		x, err := strconv.Atoi(field)
		if err != nil {
			return nil, err
		}
		res[i] = x
	}
	return res, nil
}
