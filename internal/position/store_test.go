package position

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

const samplePositions = `[
  {"instrument":"ETH-USDT-SWAP","direction":"long","entry_price":2400,"size":1,"leverage":5,"take_profit":2500,"stop_loss":2350},
  {"instrument":"BTC-USDT-SWAP","direction":"short","entry_price":65000,"size":0.1,"leverage":3},
  {"instrument":"BAD","direction":"sideways","entry_price":1,"size":1,"leverage":1}
]`

func TestFileStoreLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "positions.json")
	assert.NoError(t, os.WriteFile(path, []byte(samplePositions), 0o644))

	s, err := NewFileStore(path)
	assert.NoError(t, err)
	defer s.Close()

	// 非法记录被丢弃
	assert.Equal(t, 2, s.Count())

	eth := s.ByInstrument("ETH-USDT-SWAP")
	assert.Len(t, eth, 1)
	assert.Equal(t, DirectionLong, eth[0].Direction)
	assert.NotNil(t, eth[0].TakeProfit)
	assert.InDelta(t, 2500.0, *eth[0].TakeProfit, 1e-9)

	btc := s.ByInstrument("BTC-USDT-SWAP")
	assert.Len(t, btc, 1)
	assert.Nil(t, btc[0].TakeProfit)
	assert.Nil(t, btc[0].StopLoss)

	assert.Empty(t, s.ByInstrument("SOL-USDT-SWAP"))
}

func TestFileStoreMissingFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(filepath.Join(dir, "absent.json"))
	assert.NoError(t, err)
	defer s.Close()
	assert.Zero(t, s.Count())
}

func TestFileStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "positions.json")
	assert.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreAllReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "positions.json")
	assert.NoError(t, os.WriteFile(path, []byte(samplePositions), 0o644))

	s, err := NewFileStore(path)
	assert.NoError(t, err)
	defer s.Close()

	all := s.All()
	assert.Len(t, all, 2)
	all[0].Instrument = "mutated"
	assert.Equal(t, "ETH-USDT-SWAP", s.All()[0].Instrument)
}
