package token

import (
	"github.com/exascience/tokwork/parallel"
	"github.com/exascience/tokwork/sort"
)

// convertGrain is the grain size for bulk conversions. Interning a
// string takes a lock, so small batches are not worth a goroutine.
const convertGrain = 512

// ToTokens returns the tokens for strs, in the same order. Every returned
// token owns a reference.
func ToTokens(strs []string) []Token {
	tokens := make([]Token, len(strs))
	parallel.For(len(strs), convertGrain, func(low, high int) {
		for i := low; i < high; i++ {
			tokens[i] = New(strs[i])
		}
	})
	return tokens
}

// ToStrings returns the texts of tokens, in the same order.
func ToStrings(tokens []Token) []string {
	strs := make([]string, len(tokens))
	for i, t := range tokens {
		strs[i] = t.String()
	}
	return strs
}

// ReleaseAll releases every token in tokens, leaving them empty.
func ReleaseAll(tokens []Token) {
	parallel.For(len(tokens), convertGrain, func(low, high int) {
		for i := low; i < high; i++ {
			tokens[i].Release()
		}
	})
}

// Static returns immortal tokens for strs, in the same order. It is
// intended for fixed sets of names that are used for the whole lifetime
// of a program.
func Static(strs ...string) []Token {
	tokens := make([]Token, len(strs))
	for i, s := range strs {
		tokens[i] = NewImmortal(s)
	}
	return tokens
}

// SortTokens sorts tokens in place by Compare, in parallel if
// possible. The sort is not stable, which is only observable through
// the cached mortality of equal tokens.
func SortTokens(tokens []Token) {
	sort.SliceFunc(tokens, Token.Compare)
}
