/*
Package token provides Token, a handle to an interned string.

Tokens constructed from equal strings refer to the same canonical
copy of the string, so they can be compared and hashed in constant
time. The canonical copies live in a process-wide, thread-safe table
that is created on first use. All functions in this package are safe
for concurrent use. A Token shared between goroutines may be read and
cloned concurrently, but only its owner may Release or Move it.

Each canonical copy is reference counted. Since Go has no destructors,
the references a Token holds are managed explicitly: New, NewImmortal,
Find, and Clone each return a Token that owns one reference, and
Release drops it. A string is removed from the table when its last
reference is released, unless it has been made immortal, in which case
it stays in the table until the process exits. A Token that is never
released keeps its string in the table.

Copying a Token with a plain assignment does not add a reference. Use
Clone to obtain an independent copy, or Move to hand the reference
over.

The empty string is represented by the zero Token, which refers to no
table entry at all.
*/
package token

import (
	"strings"
)

/*
A Token is a handle to an interned string. The zero Token is the empty
token.

Besides the reference to the canonical copy, a Token caches whether it
believes that copy to be reference counted, so that references to
immortal strings can be copied and released without touching the
shared count. The belief may be stale after another goroutine made the
string immortal. Clones of such a Token start out with the correct
belief, and releasing the stale Token does not touch the count.
*/
type Token struct {
	rep     *rep
	counted bool
}

// Empty is the empty token.
var Empty = Token{}

// New returns the token for s, creating a table entry for s if there is
// none yet. The returned Token owns a reference.
func New(s string) Token {
	if s == "" {
		return Token{}
	}
	rp, counted := theRegistry().findOrCreate(s, false)
	return Token{rep: rp, counted: counted}
}

/*
NewImmortal returns the token for s and makes its table entry
immortal, creating it if necessary. Once a string is immortal, it
remains so, and it stays in the table until the process exits. Release
is a no-op for immortal tokens.
*/
func NewImmortal(s string) Token {
	if s == "" {
		return Token{}
	}
	rp, _ := theRegistry().findOrCreate(s, true)
	return Token{rep: rp}
}

// Find returns the token for s if s is currently interned, and the empty
// token otherwise. Find never creates a table entry. A non-empty result
// owns a reference.
func Find(s string) Token {
	if s == "" {
		return Token{}
	}
	rp, counted := theRegistry().find(s)
	if rp == nil {
		return Token{}
	}
	return Token{rep: rp, counted: counted}
}

// Clone returns a copy of t that owns its own reference. t itself is
// not modified.
func (t Token) Clone() Token {
	if t.rep == nil || !t.counted {
		return Token{rep: t.rep}
	}
	return Token{rep: t.rep, counted: t.rep.acquire()}
}

// Release drops the reference owned by t and leaves t empty. Releasing
// an empty token has no effect.
func (t *Token) Release() {
	if t.rep != nil && t.counted {
		theRegistry().release(t.rep)
	}
	*t = Token{}
}

// Move returns t and leaves t empty, handing over the reference.
func (t *Token) Move() Token {
	m := *t
	*t = Token{}
	return m
}

// String returns the text of t. The text of the empty token is "".
func (t Token) String() string {
	if t.rep == nil {
		return ""
	}
	return t.rep.str
}

// Len returns the length of the text of t in bytes.
func (t Token) Len() int {
	if t.rep == nil {
		return 0
	}
	return len(t.rep.str)
}

// IsEmpty reports whether t is the empty token.
func (t Token) IsEmpty() bool {
	return t.rep == nil
}

// IsImmortal reports whether the string of t is immortal. The empty
// token is immortal.
func (t Token) IsImmortal() bool {
	return t.rep == nil || !t.rep.isCounted()
}

// Equal reports whether t and u refer to the same string.
func (t Token) Equal(u Token) bool {
	return t.rep == u.rep
}

// EqualString reports whether the text of t is s.
func (t Token) EqualString(s string) bool {
	return t.String() == s
}

/*
Hash returns a hash value for t, computed from the identity of its
table entry rather than from its text. It is stable only while the
entry is alive and only within one process, so it must never be
persisted. The hash of the empty token is 0.
*/
func (t Token) Hash() uint64 {
	if t.rep == nil {
		return 0
	}
	return t.rep.hash
}

/*
Compare returns -1, 0, or +1 depending on whether t sorts before, the
same as, or after u.

The order is a total order consistent with the byte-wise order of the
texts, and the empty token sorts first. Most comparisons are decided
by comparing a code that is computed once per string; only strings
that share the same code are compared as strings.
*/
func (t Token) Compare(u Token) int {
	switch {
	case t.rep == u.rep:
		return 0
	case t.rep == nil:
		return -1
	case u.rep == nil:
		return 1
	case t.rep.cmpCode < u.rep.cmpCode:
		return -1
	case t.rep.cmpCode > u.rep.cmpCode:
		return 1
	}
	return strings.Compare(t.rep.str, u.rep.str)
}

// Less reports whether t sorts before u. See Compare.
func (t Token) Less(u Token) bool {
	return t.Compare(u) < 0
}

/*
FastLess orders tokens by the identity of their table entries. The
order is consistent within one process, but has no relation to the
texts, and differs from run to run. It is cheaper than Less, and
useful for canonicalizing sets of tokens, for example for hashing.
*/
func (t Token) FastLess(u Token) bool {
	return t.id() < u.id()
}

func (t Token) id() uint64 {
	if t.rep == nil {
		return 0
	}
	return t.rep.id
}
