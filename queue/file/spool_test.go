package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRecord struct {
	M int
}

func (r *testRecord) SQL() string {
	return "INSERT INTO test.records (m) VALUES (?)"
}

func (r *testRecord) ToExec() []interface{} {
	return []interface{}{r.M}
}

func (r *testRecord) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}

func (r testRecord) MarshalBinary() (data []byte, err error) {
	return json.Marshal(r)
}

func TestSpoolRace(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "spool")
	require.NoError(t, err)

	s, err := NewSpool(f, &testRecord{})
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, s.Close())
	}()

	countWorker := 50
	var c int32
	var wg sync.WaitGroup
	wg.Add(countWorker * 2)
	for i := 0; i < countWorker; i++ {
		go func() {
			defer wg.Done()

			for n := 0; n < 100; n++ {
				err := s.Push(&testRecord{M: n})
				require.NoError(t, err)
				atomic.AddInt32(&c, 1)
			}
		}()
		go func() {
			defer wg.Done()

			for n := 0; n < 5; n++ {
				records, err := s.Eject(50)
				require.NoError(t, err)
				atomic.AddInt32(&c, -1*int32(len(records)))
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, c, s.Len())

	records, err := s.Eject(-1)
	assert.NoError(t, err)
	require.EqualValues(t, c, len(records))
}

func TestSpoolPushEjectReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.spool")

	s, err := openSpool(path, &testRecord{})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			require.NoError(t, s.Push(&testRecord{M: 1}))
			require.NoError(t, s.Push(&testRecord{M: 2}))

			require.NoError(t, s.Close())
			s, err = openSpool(path, &testRecord{})
			require.NoError(t, err)

			require.NoError(t, s.Push(&testRecord{M: 3}))

			records, err := s.Eject(-1)
			assert.NoError(t, err)

			require.Equal(t, 3, len(records))
			assert.Equal(t, 1, records[0].(*testRecord).M)
			assert.Equal(t, 2, records[1].(*testRecord).M)
			assert.Equal(t, 3, records[2].(*testRecord).M)

			records, err = s.Eject(100)
			assert.NoError(t, err)
			require.Equal(t, 0, len(records))
		})
	}

	assert.NoError(t, s.Close())
}

func TestSpoolHeadSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "head.spool")

	s, err := openSpool(path, &testRecord{})
	require.NoError(t, err)
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Push(&testRecord{M: i}))
	}

	records, err := s.Eject(1)
	require.NoError(t, err)
	require.Equal(t, 1, len(records))
	assert.Equal(t, 1, records[0].(*testRecord).M)
	require.NoError(t, s.Close())

	s, err = openSpool(path, &testRecord{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	records, err = s.Eject(-1)
	require.NoError(t, err)
	require.Equal(t, 2, len(records))
	assert.Equal(t, 2, records[0].(*testRecord).M)
	assert.Equal(t, 3, records[1].(*testRecord).M)
	assert.NoError(t, s.Close())
}

func TestCorruptSpoolSetAside(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSpoolByRecord(&testRecord{}, Config{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Push(&testRecord{M: 1}))
	require.NoError(t, s.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	path := filepath.Join(dir, entries[0].Name())

	// Damage the record checksum.
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xde, 0xad, 0xbe, 0xef}, headOffsetSize)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	s, err = NewSpoolByRecord(&testRecord{}, Config{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.NoError(t, s.Close())

	assert.FileExists(t, path+".corrupt")
}
