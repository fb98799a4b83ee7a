package scan

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

type candidateEncoding struct {
	name string
	enc  encoding.Encoding // nil means UTF-8
}

// Probe order matters: UTF-8 first, then CJK, then the single-byte and
// Japanese code pages.
var candidateEncodings = []candidateEncoding{
	{name: "utf-8"},
	{name: "gbk", enc: simplifiedchinese.GBK},
	{name: "gb2312", enc: simplifiedchinese.GBK},
	{name: "gb18030", enc: simplifiedchinese.GB18030},
	{name: "big5", enc: traditionalchinese.Big5},
	{name: "windows-1251", enc: charmap.Windows1251},
	{name: "iso-8859-1", enc: charmap.ISO8859_1},
	{name: "iso-8859-5", enc: charmap.ISO8859_5},
	{name: "shift-jis", enc: japanese.ShiftJIS},
	{name: "euc-jp", enc: japanese.EUCJP},
	{name: "cp866", enc: charmap.CodePage866},
}

// Substrings produced when UTF-8 or Windows-1252 bytes are decoded with the
// wrong code page.
var garbledPatterns = []string{
	"å°", "ç±³", "è·¯", "ç±å¨",
	"Ã", "Â", "â", "€", "™",
	"Ð", "Ñ", "Ò", "Ó",
}

// xiaomiGarbled is "小米路由器" as it reads after a UTF-8 as Latin-1 decode.
const xiaomiGarbled = "å°ç±³è·¯ç±å¨"

var mojibakeReplacer = strings.NewReplacer(
	xiaomiGarbled, "小米路由器",

	// two byte sequences, C3 xx
	"Ã¡", "á", "Ã©", "é", "Ã\u00ad", "í", "Ã³", "ó", "Ãº", "ú",
	"Ã±", "ñ", "Ã¼", "ü", "Ã§", "ç", "Ã¤", "ä", "Ã¶", "ö",
	"Ã¬", "ì", "Ãª", "ê", "Ã«", "ë", "Ã¨", "è", "Ã¢", "â",
	"Ã£", "ã", "Ã¥", "å", "Ã¦", "æ", "Ã°", "ð", "Ã²", "ò",
	"Ã´", "ô", "Ãµ", "õ", "Ã¸", "ø", "Ã¹", "ù", "Ã»", "û",
	"Ã½", "ý", "Ã¾", "þ", "Ã¯", "ï", "Ã®", "î",

	// two byte sequences, C2 xx
	"Â°", "°", "Â£", "£", "Â©", "©", "Â®", "®", "Â«", "«", "Â»", "»", "Â§", "§",

	// three byte punctuation and currency, read as Windows-1252
	"â‚¬", "€", "â€š", "‚", "â€ž", "„", "â€¦", "…",
	"â€¡", "‡", "â€°", "‰", "â€¹", "‹", "â€˜", "‘",
	"â€™", "’", "â€œ", "“", "â€\ufffd", "”", "â€¢", "•",
	"â€“", "–", "â€”", "—", "â„¢", "™", "â€º", "›",
	"â€¼", "‼", "â€½", "‽", "â€¾", "‾",
)

// DetectEncoding returns the most likely character encoding of a response
// body. A charset declared in Content-Type wins; otherwise every candidate is
// tried strictly and the first one that yields clean text is returned.
func DetectEncoding(header http.Header, body []byte) string {
	if cs := declaredCharset(header.Get("Content-Type")); cs != "" {
		return cs
	}

	for _, cand := range candidateEncodings {
		text, ok := decodeStrict(cand.enc, body)
		if !ok || HasGarbledText(text) {
			continue
		}
		return cand.name
	}
	return "utf-8"
}

func declaredCharset(contentType string) string {
	contentType = strings.ToLower(contentType)
	idx := strings.Index(contentType, "charset=")
	if idx == -1 {
		return ""
	}
	cs, _, _ := strings.Cut(contentType[idx+len("charset="):], ";")
	cs = strings.Trim(strings.TrimSpace(cs), `"'`)
	return strings.ReplaceAll(cs, "utf8", "utf-8")
}

// decodeStrict decodes body and reports false on the first byte sequence the
// encoding does not define.
func decodeStrict(enc encoding.Encoding, body []byte) (string, bool) {
	if enc == nil {
		if !utf8.Valid(body) {
			return "", false
		}
		return string(body), true
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", false
	}
	if strings.ContainsRune(string(out), utf8.RuneError) {
		return "", false
	}
	return string(out), true
}

// decodeBody decodes body with the named encoding, replacing invalid input.
// Unknown names fall back to UTF-8.
func decodeBody(name string, body []byte) string {
	if enc, _ := charset.Lookup(name); enc != nil && enc != encoding.Nop {
		if out, err := enc.NewDecoder().Bytes(body); err == nil {
			return strings.ToValidUTF8(string(out), "\ufffd")
		}
	}
	return strings.ToValidUTF8(string(body), "\ufffd")
}

// HasGarbledText reports whether text shows mis-decoding artifacts or starts
// with a control character.
func HasGarbledText(text string) bool {
	for _, pattern := range garbledPatterns {
		if strings.Contains(text, pattern) {
			return true
		}
	}
	if text == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(text)
	return r < 32
}

// FixCommonEncodingIssues repairs double-encoded text: known sequences are
// substituted first, then anything still carrying UTF-8 lead-byte artifacts
// is re-read as Latin-1 bytes holding UTF-8.
func FixCommonEncodingIssues(text string) string {
	if text == "" {
		return text
	}

	// A substitution can expose another key, e.g. "Ã¢€™" -> "â€™".
	for range 4 {
		next := mojibakeReplacer.Replace(text)
		if next == text {
			break
		}
		text = next
	}

	if strings.ContainsAny(text, "Ãâ€") {
		if fixed, ok := redecodeLatin1(text); ok && fixed != "" && !HasGarbledText(fixed) {
			return fixed
		}
	}
	return text
}

// redecodeLatin1 encodes text as Latin-1 (dropping runes above U+00FF) and
// decodes the bytes as UTF-8 (dropping invalid bytes). ok is true only if at
// least one multi-byte sequence was recombined.
func redecodeLatin1(text string) (string, bool) {
	raw := make([]byte, 0, len(text))
	for _, r := range text {
		if r <= 0xFF {
			raw = append(raw, byte(r))
		}
	}

	var b strings.Builder
	recombined := false
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size <= 1 {
			raw = raw[1:]
			continue
		}
		if size > 1 {
			recombined = true
		}
		b.WriteRune(r)
		raw = raw[size:]
	}
	return b.String(), recombined
}
