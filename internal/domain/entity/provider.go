package entity

import (
	"strconv"
	"strings"
)

// ProviderType is the canonical identifier of a wallet provider. Canonical
// values are the only provider identifiers the rest of the system operates on;
// raw identifiers from the wallet API must go through normalization first.
type ProviderType string

const (
	ProviderNone      ProviderType = "None"
	ProviderDefault   ProviderType = "Default"
	ProviderLocalFile ProviderType = "LocalFileOASIS"
	ProviderMongoDB   ProviderType = "MongoDBOASIS"
	ProviderEthereum  ProviderType = "EthereumOASIS"
	ProviderSolana    ProviderType = "SolanaOASIS"
	ProviderZcash     ProviderType = "ZcashOASIS"
	ProviderAztec     ProviderType = "AztecOASIS"
	ProviderMiden     ProviderType = "MidenOASIS"
	ProviderStarknet  ProviderType = "StarknetOASIS"
	ProviderPolygon   ProviderType = "PolygonOASIS"
	ProviderArbitrum  ProviderType = "ArbitrumOASIS"
)

// canonicalProviders is the closed set of provider types this client knows.
var canonicalProviders = map[ProviderType]struct{}{
	ProviderNone:      {},
	ProviderDefault:   {},
	ProviderLocalFile: {},
	ProviderMongoDB:   {},
	ProviderEthereum:  {},
	ProviderSolana:    {},
	ProviderZcash:     {},
	ProviderAztec:     {},
	ProviderMiden:     {},
	ProviderStarknet:  {},
	ProviderPolygon:   {},
	ProviderArbitrum:  {},
}

// legacyProviderCodes maps the wallet API's positional enum codes to canonical
// provider types. The table is versioned with the backend enum; codes not
// listed here normalize to ProviderDefault.
var legacyProviderCodes = map[int]ProviderType{
	0:  ProviderNone,
	2:  ProviderDefault,
	3:  ProviderLocalFile,
	4:  ProviderMongoDB,
	6:  ProviderEthereum,
	27: ProviderSolana,
	32: ProviderZcash,
	38: ProviderStarknet,
	39: ProviderAztec,
	40: ProviderMiden,
	41: ProviderPolygon,
	42: ProviderArbitrum,
}

// hiddenProviders are internal/storage-only providers that must never be
// surfaced as user-facing chain wallets.
var hiddenProviders = map[ProviderType]struct{}{
	ProviderNone:      {},
	ProviderDefault:   {},
	ProviderLocalFile: {},
	ProviderMongoDB:   {},
}

// IsCanonicalProvider reports whether s is a known canonical provider type.
func IsCanonicalProvider(s string) bool {
	_, ok := canonicalProviders[ProviderType(s)]
	return ok
}

// LegacyProviderCode resolves a positional enum code to its canonical provider
// type. The second return is false for codes outside the table.
func LegacyProviderCode(code int) (ProviderType, bool) {
	p, ok := legacyProviderCodes[code]
	return p, ok
}

// Hidden reports whether the provider is internal/storage-only and must be
// excluded from the visible wallet set.
func (p ProviderType) Hidden() bool {
	_, ok := hiddenProviders[p]
	return ok
}

// RawProviderKind tags the variants of RawProviderType.
type RawProviderKind int

const (
	// RawCanonical means the raw value already matched a canonical provider type.
	RawCanonical RawProviderKind = iota
	// RawLegacyCode means the raw value was an integer (or all-digit string)
	// positional code.
	RawLegacyCode
	// RawUnknown covers everything else: null, unrecognized strings, floats.
	RawUnknown
)

// RawProviderType is the tagged representation of a provider identifier as it
// arrives from the wallet API, before normalization. The API interchangeably
// sends canonical strings, raw numbers and numeric-looking strings; parsing the
// union once at the boundary keeps every downstream component on ProviderType.
type RawProviderType struct {
	Kind      RawProviderKind
	Canonical ProviderType // set when Kind == RawCanonical
	Code      int          // set when Kind == RawLegacyCode
	Original  string       // raw input as text, for diagnostics
}

// ParseRawProvider classifies an arbitrary decoded JSON value as a raw
// provider identifier. It never fails; unclassifiable input comes back as
// RawUnknown and is resolved to ProviderDefault by the normalizer.
func ParseRawProvider(v any) RawProviderType {
	switch t := v.(type) {
	case nil:
		return RawProviderType{Kind: RawUnknown, Original: "<nil>"}
	case string:
		return parseRawProviderString(t)
	case int:
		return RawProviderType{Kind: RawLegacyCode, Code: t, Original: strconv.Itoa(t)}
	case int64:
		return RawProviderType{Kind: RawLegacyCode, Code: int(t), Original: strconv.FormatInt(t, 10)}
	case float64:
		// JSON numbers decode as float64; only whole values are legacy codes.
		if t == float64(int(t)) {
			return RawProviderType{Kind: RawLegacyCode, Code: int(t), Original: strconv.Itoa(int(t))}
		}
		return RawProviderType{Kind: RawUnknown, Original: strconv.FormatFloat(t, 'f', -1, 64)}
	case ProviderType:
		return parseRawProviderString(string(t))
	default:
		return RawProviderType{Kind: RawUnknown, Original: "<unsupported>"}
	}
}

func parseRawProviderString(s string) RawProviderType {
	trimmed := strings.TrimSpace(s)
	if IsCanonicalProvider(trimmed) {
		return RawProviderType{Kind: RawCanonical, Canonical: ProviderType(trimmed), Original: s}
	}
	if trimmed != "" && isAllDigits(trimmed) {
		code, err := strconv.Atoi(trimmed)
		if err == nil {
			return RawProviderType{Kind: RawLegacyCode, Code: code, Original: s}
		}
	}
	return RawProviderType{Kind: RawUnknown, Original: s}
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
