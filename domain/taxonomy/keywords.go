package taxonomy

// techKeywords maps a canonical language to weighted ecosystem keywords.
// Weights are in (0, 1] and express how strongly a token signals real
// technical depth for that language.
var techKeywords = map[string]map[string]float64{
	"go": {
		"goroutine":  1.0,
		"channel":    0.9,
		"context":    0.7,
		"interface":  0.6,
		"mutex":      0.8,
		"deadlock":   0.9,
		"race":       0.8,
		"gc":         0.7,
		"cgo":        0.9,
		"grpc":       0.7,
		"middleware": 0.5,
		"module":     0.4,
	},
	"python": {
		"asyncio":         1.0,
		"coroutine":       0.9,
		"gil":             0.9,
		"decorator":       0.7,
		"generator":       0.7,
		"numpy":           0.8,
		"pandas":          0.8,
		"django":          0.7,
		"flask":           0.6,
		"typing":          0.6,
		"pickle":          0.6,
		"multiprocessing": 0.8,
	},
	"javascript": {
		"promise":   0.9,
		"async":     0.8,
		"await":     0.8,
		"closure":   0.8,
		"prototype": 0.7,
		"webpack":   0.6,
		"node":      0.5,
		"npm":       0.4,
		"eventloop": 1.0,
		"callback":  0.6,
		"dom":       0.6,
	},
	"typescript": {
		"generics":  0.9,
		"interface": 0.7,
		"decorator": 0.7,
		"tsconfig":  0.6,
		"inference": 0.8,
		"union":     0.7,
		"narrowing": 0.9,
		"strict":    0.5,
		"promise":   0.7,
		"async":     0.6,
	},
	"java": {
		"jvm":          1.0,
		"classloader":  0.9,
		"thread":       0.7,
		"synchronized": 0.8,
		"spring":       0.7,
		"maven":        0.5,
		"gradle":       0.5,
		"heap":         0.8,
		"gc":           0.8,
		"bytecode":     0.9,
	},
	"rust": {
		"borrow":    1.0,
		"lifetime":  1.0,
		"unsafe":    0.9,
		"trait":     0.8,
		"ownership": 0.9,
		"cargo":     0.5,
		"tokio":     0.8,
		"async":     0.7,
		"macro":     0.7,
		"ffi":       0.8,
	},
	"cpp": {
		"template":  0.9,
		"constexpr": 0.9,
		"raii":      1.0,
		"undefined": 0.8,
		"segfault":  0.8,
		"valgrind":  0.8,
		"cmake":     0.5,
		"stl":       0.7,
		"coroutine": 0.8,
		"allocator": 0.9,
	},
	"c": {
		"pointer":  0.8,
		"malloc":   0.9,
		"segfault": 0.8,
		"valgrind": 0.8,
		"struct":   0.5,
		"macro":    0.6,
		"linker":   0.8,
		"abi":      0.9,
		"memcpy":   0.7,
	},
	"ruby": {
		"rails":           0.8,
		"gem":             0.5,
		"metaprogramming": 1.0,
		"activerecord":    0.8,
		"block":           0.6,
		"rspec":           0.6,
		"sidekiq":         0.7,
		"rack":            0.7,
	},
	"php": {
		"composer": 0.6,
		"laravel":  0.7,
		"symfony":  0.7,
		"psr":      0.8,
		"opcache":  0.9,
		"fpm":      0.8,
		"autoload": 0.7,
	},
	"csharp": {
		"dotnet":  0.7,
		"linq":    0.8,
		"async":   0.7,
		"await":   0.7,
		"nuget":   0.5,
		"clr":     1.0,
		"task":    0.6,
		"span":    0.9,
		"dispose": 0.8,
	},
	"kotlin": {
		"coroutine": 1.0,
		"suspend":   0.9,
		"flow":      0.8,
		"gradle":    0.5,
		"ktor":      0.7,
		"nullable":  0.7,
		"inline":    0.7,
	},
	"swift": {
		"optional":    0.7,
		"arc":         0.9,
		"actor":       0.9,
		"swiftui":     0.7,
		"combine":     0.8,
		"protocol":    0.7,
		"concurrency": 0.8,
	},
	"scala": {
		"akka":     0.8,
		"implicit": 0.9,
		"monad":    0.9,
		"sbt":      0.5,
		"cats":     0.8,
		"zio":      0.8,
	},
	"elixir": {
		"otp":        1.0,
		"genserver":  1.0,
		"beam":       0.9,
		"phoenix":    0.7,
		"supervisor": 0.8,
		"ecto":       0.7,
	},
	"haskell": {
		"monad":     0.9,
		"functor":   0.8,
		"ghc":       0.9,
		"laziness":  0.9,
		"typeclass": 0.9,
		"cabal":     0.5,
	},
	"dart": {
		"flutter": 0.8,
		"widget":  0.7,
		"isolate": 1.0,
		"stream":  0.7,
		"future":  0.6,
	},
	"shell": {
		"pipe":     0.7,
		"subshell": 0.9,
		"quoting":  0.8,
		"posix":    0.8,
		"exit":     0.4,
		"trap":     0.8,
	},
}

// defaultKeywords applies when the language is unknown or has no table.
var defaultKeywords = map[string]float64{
	"api":            0.5,
	"database":       0.6,
	"concurrency":    0.9,
	"deadlock":       0.9,
	"memory":         0.7,
	"leak":           0.8,
	"performance":    0.7,
	"latency":        0.8,
	"cache":          0.6,
	"queue":          0.6,
	"docker":         0.5,
	"kubernetes":     0.6,
	"tls":            0.7,
	"authentication": 0.6,
	"serialization":  0.7,
	"regression":     0.6,
	"stacktrace":     0.7,
	"panic":          0.7,
	"timeout":        0.6,
	"migration":      0.5,
}

// KeywordWeight returns the weight of token for language, falling back to
// the language-agnostic table when the language has none. Zero means the
// token is not a known technical keyword.
func KeywordWeight(language, token string) float64 {
	table, ok := techKeywords[language]
	if !ok {
		table = defaultKeywords
	}
	return table[token]
}

// KeywordTable returns a copy of the keyword table for language, or the
// language-agnostic default when none exists.
func KeywordTable(language string) map[string]float64 {
	table, ok := techKeywords[language]
	if !ok {
		table = defaultKeywords
	}
	out := make(map[string]float64, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}

// HasKeywordTable reports whether language carries its own keyword table.
func HasKeywordTable(language string) bool {
	_, ok := techKeywords[language]
	return ok
}
