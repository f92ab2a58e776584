package settings

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofocus/blob"
	"gofocus/core"
)

const testBoard = 38

func testOptions() Options {
	return Options{
		BoardNumber: testBoard,
		BoardDefaults: func(n int) (Board, bool) {
			if n != testBoard {
				return Board{}, false
			}
			return Board{
				Name: "PRO2EULN2003", MaxStepMode: 2, StepMode: 1,
				EnablePin: -1, StepPin: -1, DirPin: -1, TempPin: 10,
				Number: testBoard, StepsPerRev: 2048, FixedStepMode: 1,
				Pins: [4]int32{13, 12, 14, 2}, SpeedDelay: 4000,
			}, true
		},
		Overrides: func(n int) BoardOverrides {
			return BoardOverrides{StepsPerRev: true}
		},
	}
}

func newTestStore(t *testing.T) (*Store, *blob.MemStore, *core.ManualClock) {
	t.Helper()
	blobs := blob.NewMemStore()
	clock := &core.ManualClock{}
	s := NewStore(blobs, clock, testOptions())
	_ = s.Load()
	return s, blobs, clock
}

func readVariable(t *testing.T, blobs *blob.MemStore) Variable {
	t.Helper()
	data, err := blobs.Read(VariableBlob)
	require.NoError(t, err)
	var v Variable
	require.NoError(t, json.Unmarshal(data, &v))
	return v
}

func TestLoadMissingWritesDefaults(t *testing.T) {
	blobs := blob.NewMemStore()
	s := NewStore(blobs, &core.ManualClock{}, testOptions())

	err := s.Load()
	assert.ErrorIs(t, err, ErrConfigLoad)

	for _, name := range []string{PersistentBlob, VariableBlob, BoardBlob} {
		assert.Equal(t, 1, blobs.Writes(name), name)
	}
	assert.Equal(t, DefaultMaxStep, s.Persistent().MaxStep)
	assert.Equal(t, DefaultPosition, s.Variable().Position)
	assert.Equal(t, "PRO2EULN2003", s.Board().Name)
	assert.False(t, s.Dirty(DomainPersistent))
}

func TestLoadCorruptBlob(t *testing.T) {
	blobs := blob.NewMemStore()
	require.NoError(t, blobs.Write(PersistentBlob, []byte("{not json")))
	require.NoError(t, blobs.Write(VariableBlob, []byte(`{"fpos":1234,"fdir":true}`)))

	s := NewStore(blobs, &core.ManualClock{}, testOptions())
	err := s.Load()
	assert.ErrorIs(t, err, ErrConfigLoad)

	assert.Equal(t, DefaultPersistent(), s.Persistent())
	assert.Equal(t, Variable{Position: 1234, Outward: true}, s.Variable())
	assert.Equal(t, 1, blobs.Writes(VariableBlob), "valid blob is not rewritten")
}

func TestLoadRoundTrip(t *testing.T) {
	s, blobs, _ := newTestStore(t)
	s.SetMaxStep(40000)
	s.SetDeviceName("Refractor")
	s.SetPosition(777)
	require.NoError(t, s.SaveNow())

	s2 := NewStore(blobs, &core.ManualClock{}, testOptions())
	require.NoError(t, s2.Load())
	assert.Equal(t, int32(40000), s2.Persistent().MaxStep)
	assert.Equal(t, "Refractor", s2.Persistent().DeviceName)
	assert.Equal(t, int32(777), s2.Variable().Position)
}

func TestDebounceWritesOnceAfterWindow(t *testing.T) {
	s, blobs, clock := newTestStore(t)
	base := blobs.Writes(VariableBlob)

	// ten changes inside one second
	for i := 1; i <= 10; i++ {
		clock.Advance(100 * time.Millisecond)
		s.SetPosition(int32(6000 + i))
	}
	lastSet := clock.Now()

	for clock.Now() < lastSet+130*time.Second {
		clock.Advance(time.Second)
		s.Tick(clock.Now())
		if blobs.Writes(VariableBlob) > base {
			assert.GreaterOrEqual(t, clock.Now()-lastSet, DefaultSaveWindow)
		}
	}

	assert.Equal(t, base+1, blobs.Writes(VariableBlob))
	assert.Equal(t, int32(6010), readVariable(t, blobs).Position)
	assert.False(t, s.Dirty(DomainVariable))
}

func TestSetFieldUnchangedIsClean(t *testing.T) {
	s, _, _ := newTestStore(t)
	assert.False(t, SetField(s, DomainVariable, &s.variable.Position, s.variable.Position))
	assert.False(t, s.Dirty(DomainVariable))

	s.SetMaxStep(DefaultMaxStep)
	assert.False(t, s.Dirty(DomainPersistent))
}

func TestDomainsIndependent(t *testing.T) {
	s, blobs, clock := newTestStore(t)
	pBase, vBase := blobs.Writes(PersistentBlob), blobs.Writes(VariableBlob)

	s.SetCoilPower(true)
	clock.Advance(60 * time.Second)
	s.SetPosition(100)

	clock.Advance(61 * time.Second)
	s.Tick(clock.Now())
	assert.Equal(t, pBase+1, blobs.Writes(PersistentBlob))
	assert.Equal(t, vBase, blobs.Writes(VariableBlob))
	assert.True(t, s.Dirty(DomainVariable))

	clock.Advance(60 * time.Second)
	s.Tick(clock.Now())
	assert.Equal(t, vBase+1, blobs.Writes(VariableBlob))
}

func TestClockWentBackwardsFlushes(t *testing.T) {
	s, blobs, clock := newTestStore(t)
	base := blobs.Writes(PersistentBlob)

	clock.Set(500 * time.Second)
	s.SetBacklashIn(12)

	s.Tick(10 * time.Second)
	assert.Equal(t, base+1, blobs.Writes(PersistentBlob))
}

func TestWriteFailureKeepsDirty(t *testing.T) {
	s, blobs, clock := newTestStore(t)
	boom := errors.New("flash worn")
	blobs.FailWrites(VariableBlob, boom)

	s.SetPosition(4242)
	clock.Advance(121 * time.Second)
	s.Tick(clock.Now())

	assert.True(t, s.Dirty(DomainVariable))
	assert.ErrorIs(t, s.LastError(DomainVariable), ErrPersistWrite)

	blobs.FailWrites(VariableBlob, nil)
	clock.Advance(time.Second)
	s.Tick(clock.Now())

	assert.False(t, s.Dirty(DomainVariable))
	assert.NoError(t, s.LastError(DomainVariable))
	assert.Equal(t, int32(4242), readVariable(t, blobs).Position)
}

func TestSaveNowWritesAllWhenClean(t *testing.T) {
	s, blobs, _ := newTestStore(t)
	before := map[string]int{}
	for _, n := range []string{PersistentBlob, VariableBlob, BoardBlob} {
		before[n] = blobs.Writes(n)
	}

	require.NoError(t, s.SaveNow())
	for n, c := range before {
		assert.Equal(t, c+1, blobs.Writes(n), n)
	}
}

func TestSaveNowFailureMarksDirty(t *testing.T) {
	s, blobs, _ := newTestStore(t)
	blobs.FailWrites(BoardBlob, errors.New("full"))

	err := s.SaveNow()
	assert.ErrorIs(t, err, ErrPersistWrite)
	assert.True(t, s.Dirty(DomainBoard))
	assert.False(t, s.Dirty(DomainPersistent))
}

func TestImportBoardFile(t *testing.T) {
	blobs := blob.NewMemStore()
	file := `{"board":"PRO2EULN2003","maxstepmode":2,"stepmode":2,"enpin":-1,"steppin":-1,` +
		`"dirpin":-1,"temppin":4,"brdnum":38,"stepsrev":400,"fixedsmode":1,` +
		`"brdpins":[5,6,7,8],"msdelay":6000}`
	require.NoError(t, blobs.Write(BoardFileName(testBoard), []byte(file)))

	s := NewStore(blobs, &core.ManualClock{}, testOptions())
	_ = s.Load()

	b := s.Board()
	assert.Equal(t, [4]int32{5, 6, 7, 8}, b.Pins)
	assert.Equal(t, uint32(6000), b.SpeedDelay)
	assert.Equal(t, 2048, b.StepsPerRev, "wiring keeps the compiled steps per rev")
	assert.Equal(t, 1, blobs.Writes(BoardBlob))
}

func TestCreateBoardConfigFromJSONRejectsGarbage(t *testing.T) {
	s, _, _ := newTestStore(t)
	before := s.Board()
	assert.Error(t, s.CreateBoardConfigFromJSON([]byte("<xml/>")))
	assert.Equal(t, before, s.Board())
}

func TestSetFocuserDefaults(t *testing.T) {
	s, blobs, _ := newTestStore(t)
	s.SetMaxStep(20000)
	s.SetPosition(10)
	require.NoError(t, s.SaveNow())

	require.NoError(t, s.SetFocuserDefaults())
	assert.Equal(t, DefaultMaxStep, s.Persistent().MaxStep)
	assert.Equal(t, DefaultPosition, s.Variable().Position)

	data, err := blobs.Read(PersistentBlob)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"maxstep":80000`)
}

func TestSetterBounds(t *testing.T) {
	s, _, _ := newTestStore(t)

	assert.Equal(t, MinMaxStep, s.SetMaxStep(1))
	assert.Equal(t, MaxMaxStep, s.SetMaxStep(1<<30))
	assert.Equal(t, SpeedFast, s.SetMotorSpeed(9))
	assert.Equal(t, MaxStepSize, s.SetStepSize(1000))
	assert.Equal(t, MinStepSize, s.SetStepSize(0))
	assert.Equal(t, MaxCoefficient, s.SetTempCoefficient(999))
	assert.Equal(t, MinSpeedDelay, s.SetSpeedDelay(1))

	s.SetDeviceName("AVeryLongTelescopeName")
	assert.Equal(t, "AVeryLongTe", s.Persistent().DeviceName)
}

func TestUpdatePersistent(t *testing.T) {
	s, _, _ := newTestStore(t)

	assert.False(t, s.UpdatePersistent(func(p *Persistent) {}))
	assert.True(t, s.UpdatePersistent(func(p *Persistent) {
		p.DisplayPageOption = "11"
		p.WebEnable = true
	}))
	assert.Equal(t, "110000", s.Persistent().DisplayPageOption)
	assert.True(t, s.Dirty(DomainPersistent))
}

func TestJSONKeys(t *testing.T) {
	data, err := json.Marshal(DefaultVariable())
	require.NoError(t, err)
	assert.JSONEq(t, `{"fpos":5000,"fdir":false}`, string(data))

	data, err = json.Marshal(UnknownBoard(99))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"brdpins":[-1,-1,-1,-1]`)
	assert.Contains(t, string(data), `"msdelay":4000`)
}

func TestStepSizeNaNStillPersists(t *testing.T) {
	s, blobs, clock := newTestStore(t)

	assert.Equal(t, DefaultStepSize, s.SetStepSize(math.NaN()))
	s.SetMaxStep(40000)
	clock.Advance(200 * time.Second)
	s.Tick(clock.Now())

	assert.False(t, s.Dirty(DomainPersistent))
	require.NoError(t, s.LastError(DomainPersistent))
	data, err := blobs.Read(PersistentBlob)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"maxstep":40000`)

	assert.True(t, s.UpdatePersistent(func(p *Persistent) {
		p.StepSize = math.NaN()
		p.MaxStep = 30000
	}))
	assert.Equal(t, DefaultStepSize, s.Persistent().StepSize)
	require.NoError(t, s.SaveNow())
}

func TestUpdateBoard(t *testing.T) {
	s, _, _ := newTestStore(t)
	require.NoError(t, s.SaveNow())

	assert.False(t, s.UpdateBoard(func(b *Board) {}))
	assert.False(t, s.Dirty(DomainBoard))

	assert.True(t, s.UpdateBoard(func(b *Board) {
		b.SpeedDelay = 1
		b.StepMode = 0
	}))
	assert.Equal(t, MinSpeedDelay, s.Board().SpeedDelay)
	assert.Equal(t, 1, s.Board().StepMode)
	assert.True(t, s.Dirty(DomainBoard))

	assert.Equal(t, MaxSpeedDelay, s.SetSpeedDelay(99999))
	assert.Equal(t, 2, s.SetStepMode(2))
}
