package buffer

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfflow/recovery"
)

func factories(t *testing.T) map[string]SinkFactory {
	return map[string]SinkFactory{
		"memory": MemoryFactory{},
		"disk":   DiskFactory{Dir: t.TempDir()},
	}
}

func TestStoreAppendInsertRead(t *testing.T) {
	for name, f := range factories(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStore(f)
			defer s.Close()
			require.NoError(t, s.Create(1))
			require.NoError(t, s.Append(1, []byte("BT (x) Tj ET\n")))
			require.NoError(t, s.InsertAt(1, 0, []byte("0 0 10 10 re f\n")))
			require.NoError(t, s.InsertAt(1, s.Len(1), []byte("Q\n")))
			got, err := s.Read(1)
			require.NoError(t, err)
			require.Equal(t, "0 0 10 10 re f\nBT (x) Tj ET\nQ\n", string(got))
			require.Error(t, s.InsertAt(1, s.Len(1)+1, []byte("z")))
		})
	}
}

func TestStoreRejectsBadPage(t *testing.T) {
	s := NewStore(nil)
	for _, page := range []int{0, -1, 1} {
		err := s.Append(page, []byte("x"))
		if !errors.Is(err, recovery.InvalidFormat) {
			t.Fatalf("Append(%d): expected InvalidFormat, got %v", page, err)
		}
	}
	if err := s.Create(2); !errors.Is(err, recovery.InvalidFormat) {
		t.Fatalf("Create out of order: %v", err)
	}
}

func TestStoreRollbackRestoresBytes(t *testing.T) {
	for name, f := range factories(t) {
		t.Run(name, func(t *testing.T) {
			s := NewStore(f)
			defer s.Close()
			require.NoError(t, s.Create(1))
			require.NoError(t, s.Append(1, []byte("header|body|footer")))
			before, err := s.Read(1)
			require.NoError(t, err)
			before = append([]byte(nil), before...)

			s.Checkpoint()
			require.NoError(t, s.InsertAt(1, 7, []byte("AAA")))
			require.NoError(t, s.InsertAt(1, 2, []byte("BB")))
			require.NoError(t, s.InsertAt(1, 12, []byte("C")))
			require.NoError(t, s.Append(1, []byte("tail")))
			require.NoError(t, s.Create(2))
			require.NoError(t, s.Append(2, []byte("page two")))
			_, err = s.PutBlob([]byte{1, 2, 3})
			require.NoError(t, err)

			require.NoError(t, s.Rollback())
			after, err := s.Read(1)
			require.NoError(t, err)
			require.Equal(t, string(before), string(after))
			require.Equal(t, 1, s.Pages())
			_, err = s.Blob(1)
			require.Error(t, err)
		})
	}
}

func TestDiskSinkCloseRemovesFile(t *testing.T) {
	d, err := NewDiskSink(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, d.Append([]byte("data")))
	path := d.Path()
	require.NoError(t, d.Close())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestCommitDropsCheckpoint(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.Create(1))
	s.Checkpoint()
	require.NoError(t, s.Append(1, []byte("kept")))
	s.Commit()
	require.NoError(t, s.Rollback())
	got, err := s.Read(1)
	require.NoError(t, err)
	require.Equal(t, "kept", string(got))
}
