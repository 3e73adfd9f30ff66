package token

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strongCount(t Token) uint64 {
	return t.rep.refCount.Load() >> 1
}

func TestEmptyToken(t *testing.T) {
	var zero Token
	e := New("")
	assert.True(t, e.IsEmpty())
	assert.True(t, e.Equal(zero))
	assert.True(t, e.Equal(Empty))
	assert.Equal(t, "", e.String())
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, uint64(0), e.Hash())
	assert.True(t, e.IsImmortal())
	assert.True(t, NewImmortal("").IsEmpty())
	assert.True(t, Find("").IsEmpty())

	c := e.Clone()
	assert.True(t, c.IsEmpty())
	e.Release()
	c.Release()
	assert.True(t, e.IsEmpty())
}

func TestNewRoundTrips(t *testing.T) {
	for _, s := range []string{"a", "attribute:name", "with\x00nul", "ünïcödé", strings.Repeat("x", 4096)} {
		tok := New(s)
		assert.Equal(t, s, tok.String())
		assert.Equal(t, len(s), tok.Len())
		assert.True(t, tok.EqualString(s))
		assert.False(t, tok.EqualString(s+"!"))
		assert.False(t, tok.IsEmpty())
		tok.Release()
	}
}

func TestCanonicalizationConcurrent(t *testing.T) {
	const (
		goroutines = 32
		names      = 200
	)
	tokens := make([][]Token, goroutines)
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			row := make([]Token, names)
			for k := range row {
				row[k] = New(fmt.Sprintf("canon-%d", (k+g)%names))
			}
			tokens[g] = row
		}(g)
	}
	wg.Wait()

	byName := map[string]Token{}
	for _, row := range tokens {
		for _, tok := range row {
			first, ok := byName[tok.String()]
			if !ok {
				byName[tok.String()] = tok
				continue
			}
			require.True(t, first.Equal(tok), "two reps for %q", tok.String())
			require.Same(t, first.rep, tok.rep)
			require.Equal(t, first.Hash(), tok.Hash())
		}
	}
	require.Len(t, byName, names)
	for _, tok := range byName {
		assert.Equal(t, uint64(goroutines), strongCount(tok))
	}

	for _, row := range tokens {
		ReleaseAll(row)
	}
	for name := range byName {
		assert.True(t, Find(name).IsEmpty(), "%q still registered", name)
	}
}

func TestCreateReleaseChurn(t *testing.T) {
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(g)))
			for i := 0; i < 20_000; i++ {
				s := fmt.Sprintf("churn-%d", rng.Intn(8))
				a := New(s)
				b := New(s)
				if !a.Equal(b) {
					panic("distinct reps for " + s)
				}
				c := b.Clone()
				a.Release()
				b.Release()
				if !c.EqualString(s) {
					panic("clone lost its text")
				}
				c.Release()
			}
		}(g)
	}
	wg.Wait()
	for i := 0; i < 8; i++ {
		assert.True(t, Find(fmt.Sprintf("churn-%d", i)).IsEmpty())
	}
}

func TestCloneReleaseCounts(t *testing.T) {
	a := New("rc-token")
	require.Equal(t, uint64(1), strongCount(a))
	b := a.Clone()
	assert.True(t, a.Equal(b))
	assert.Equal(t, uint64(2), strongCount(a))

	f := Find("rc-token")
	assert.True(t, f.Equal(a))
	assert.Equal(t, uint64(3), strongCount(a))
	f.Release()

	a.Release()
	assert.True(t, a.IsEmpty())
	assert.Equal(t, uint64(1), strongCount(b))
	g := Find("rc-token")
	require.True(t, g.Equal(b))
	g.Release()

	id := b.rep.id
	b.Release()
	assert.True(t, Find("rc-token").IsEmpty())

	c := New("rc-token")
	assert.NotEqual(t, id, c.rep.id, "a released string must get a fresh entry")
	c.Release()
}

func TestMove(t *testing.T) {
	a := New("move-token")
	b := a.Move()
	assert.True(t, a.IsEmpty())
	assert.Equal(t, "move-token", b.String())
	assert.Equal(t, uint64(1), strongCount(b))
	b.Release()
	assert.True(t, Find("move-token").IsEmpty())
}

func TestReleaseUnderflowPanics(t *testing.T) {
	a := New("underflow-token")
	alias := a
	a.Release()
	assert.Panics(t, func() { alias.Release() })
}

func TestImmortality(t *testing.T) {
	mortal := New("immortal-token")
	require.False(t, mortal.IsImmortal())
	require.True(t, mortal.counted)

	imm := NewImmortal("immortal-token")
	assert.True(t, imm.Equal(mortal))
	assert.True(t, imm.IsImmortal())
	assert.True(t, mortal.IsImmortal())

	// The cached belief of mortal stays stale; its clones know better.
	c := mortal.Clone()
	assert.True(t, mortal.counted)
	assert.False(t, c.counted)

	rp := imm.rep
	mortal.Release()
	c.Release()
	imm.Release()
	assert.True(t, imm.IsEmpty())

	again := Find("immortal-token")
	require.False(t, again.IsEmpty())
	assert.True(t, again.IsImmortal())
	assert.Same(t, rp, again.rep)

	fresh := New("immortal-token")
	assert.True(t, fresh.IsImmortal())
	assert.False(t, fresh.counted)
	fresh.Release()
	assert.True(t, Find("immortal-token").IsImmortal())
}

func TestCloneSharedTokenWhileMadeImmortal(t *testing.T) {
	const name = "shared-clone-immortal"
	shared := New(name)
	defer shared.Release()

	var wg sync.WaitGroup
	var imm Token
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				if g == 0 && i == 1000 {
					imm = NewImmortal(name)
				}
				c := shared.Clone()
				if !c.Equal(shared) {
					panic("clone refers to another rep")
				}
				c.Release()
			}
		}(g)
	}
	wg.Wait()

	assert.True(t, imm.IsImmortal())
	assert.True(t, shared.counted)
	assert.False(t, shared.Clone().counted)
	found := Find(name)
	assert.Same(t, imm.rep, found.rep)
}

func TestNewImmortalCreates(t *testing.T) {
	a := NewImmortal("born-immortal")
	assert.True(t, a.IsImmortal())
	b := NewImmortal("born-immortal")
	assert.True(t, a.Equal(b))
	a.Release()
	b.Release()
	assert.False(t, Find("born-immortal").IsEmpty())
}

func TestImmortalRaceWithRelease(t *testing.T) {
	for round := 0; round < 200; round++ {
		name := fmt.Sprintf("race-immortal-%d", round)
		tokens := make([]Token, 64)
		for i := range tokens {
			tokens[i] = New(name)
		}
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			ReleaseAll(tokens)
		}()
		var imm Token
		go func() {
			defer wg.Done()
			imm = NewImmortal(name)
		}()
		wg.Wait()
		require.True(t, imm.IsImmortal())
		found := Find(name)
		require.True(t, found.Equal(imm), "immortal %q lost", name)
	}
}

func TestCompareMatchesStrings(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	alphabet := "ab\x00"
	var strs []string
	strs = append(strs, "", "a", "ab", "abcdefgh", "abcdefghi", "abcdefghj", "abcdefgh\x00", "b")
	for i := 0; i < 150; i++ {
		n := rng.Intn(12)
		var sb strings.Builder
		sb.WriteString("abcdefg"[:rng.Intn(8)])
		for k := 0; k < n; k++ {
			sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		strs = append(strs, sb.String())
	}
	tokens := ToTokens(strs)
	defer ReleaseAll(tokens)

	for i, t1 := range tokens {
		assert.False(t, t1.Less(t1))
		for j, t2 := range tokens {
			want := strings.Compare(strs[i], strs[j])
			require.Equal(t, want, t1.Compare(t2), "%q vs %q", strs[i], strs[j])
			require.Equal(t, want < 0, t1.Less(t2))
		}
	}
}

func TestEmptySortsFirst(t *testing.T) {
	a := New("\x00")
	defer a.Release()
	assert.True(t, Empty.Less(a))
	assert.False(t, a.Less(Empty))
	assert.Equal(t, 0, Empty.Compare(Token{}))
}

func TestFastLess(t *testing.T) {
	tokens := ToTokens([]string{"fast-c", "fast-a", "fast-b", ""})
	defer ReleaseAll(tokens)
	for _, t1 := range tokens {
		assert.False(t, t1.FastLess(t1))
		for _, t2 := range tokens {
			if !t1.Equal(t2) {
				assert.NotEqual(t, t1.FastLess(t2), t2.FastLess(t1))
			}
		}
		if !t1.IsEmpty() {
			assert.True(t, Empty.FastLess(t1))
		}
	}
}

func TestStats(t *testing.T) {
	before := ReadStats()
	assert.Equal(t, numSets, before.Sets)

	tokens := ToTokens([]string{"stats-a", "stats-b", "stats-c"})
	imm := NewImmortal("stats-immortal")
	after := ReadStats()
	assert.GreaterOrEqual(t, after.Live, 4)
	assert.GreaterOrEqual(t, after.Immortal, 1)
	assert.LessOrEqual(t, after.Immortal, after.Live)
	ReleaseAll(tokens)
	imm.Release()
}

func BenchmarkNewExisting(b *testing.B) {
	keep := New("bench-existing")
	defer keep.Release()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tok := New("bench-existing")
			tok.Release()
		}
	})
}

func BenchmarkCompare(b *testing.B) {
	x, y := New("bench-compare-x"), New("bench-compare-y")
	defer x.Release()
	defer y.Release()
	for i := 0; i < b.N; i++ {
		x.Less(y)
	}
}
