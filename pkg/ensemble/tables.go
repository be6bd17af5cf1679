package ensemble

// Protection level / bitrate tables, carried verbatim from ETSI EN 300 401
// §6.2.1 (the UEP short-form Sub_Channel_SizeTable). Index is the UEP
// table index; value is subchannel size in Capacity Units.
var subChannelSizeTableCU = [64]int{
	16, 21, 24, 29, 35, 24, 29, 35,
	42, 52, 29, 35, 42, 52, 32, 42,
	48, 58, 70, 40, 52, 58, 70, 84,
	48, 58, 70, 84, 104, 58, 70, 84,
	104, 64, 84, 96, 116, 140, 80, 104,
	116, 140, 168, 96, 116, 140, 168, 208,
	116, 140, 168, 208, 232, 128, 168, 192,
	232, 280, 160, 208, 280, 192, 280, 416,
}

// uepTableIndex maps (bitrate kbps, protection level 0-4) to the UEP
// table index used against subChannelSizeTableCU. Not every (bitrate,
// level) pair is defined by the standard; missing pairs return !ok.
var uepTableIndex = map[uepKey]int{
	{32, 4}: 0, {32, 3}: 1, {32, 2}: 2, {32, 1}: 3, {32, 0}: 4,
	{48, 4}: 5, {48, 3}: 6, {48, 2}: 7, {48, 1}: 8, {48, 0}: 9,
	{56, 4}: 10, {56, 3}: 11, {56, 2}: 12, {56, 1}: 13,
	{64, 4}: 14, {64, 3}: 15, {64, 2}: 16, {64, 1}: 17, {64, 0}: 18,
	{80, 4}: 19, {80, 3}: 20, {80, 2}: 21, {80, 1}: 22, {80, 0}: 23,
	{96, 4}: 24, {96, 3}: 25, {96, 2}: 26, {96, 1}: 27, {96, 0}: 28,
	{112, 4}: 29, {112, 3}: 30, {112, 2}: 31, {112, 1}: 32,
	{128, 4}: 33, {128, 3}: 34, {128, 2}: 35, {128, 1}: 36, {128, 0}: 37,
	{160, 4}: 38, {160, 3}: 39, {160, 2}: 40, {160, 1}: 41, {160, 0}: 42,
	{192, 4}: 43, {192, 3}: 44, {192, 2}: 45, {192, 1}: 46, {192, 0}: 47,
	{224, 4}: 48, {224, 3}: 49, {224, 2}: 50, {224, 1}: 51, {224, 0}: 52,
	{256, 4}: 53, {256, 3}: 54, {256, 2}: 55, {256, 1}: 56, {256, 0}: 57,
	{320, 4}: 58, {320, 3}: 59, {320, 1}: 60,
	{384, 4}: 61, {384, 2}: 62, {384, 0}: 63,
}

type uepKey struct {
	bitrate int
	level   int
}

// uepLookup returns the UEP table index and size in CU for a
// (bitrate, level) pair, or ok=false if the pair is not tabulated.
func uepLookup(bitrateKbps, level int) (tableIndex, sizeCU int, ok bool) {
	idx, found := uepTableIndex[uepKey{bitrateKbps, level}]
	if !found {
		return 0, 0, false
	}
	return idx, subChannelSizeTableCU[idx], true
}

// ebuLatin is the 256-entry EBU Latin (ETSI EN 300 401 Annex C)
// character set used for labels. Codepoints 0x00-0x7F mirror ASCII;
// 0x80-0xFF carry the EBU Latin accented/extended glyphs. Receivers
// that only understand the low range still display labels correctly
// since bytes above 0x7F fall back to space when unmapped.
var ebuLatin [256]rune

func init() {
	for i := 0; i < 0x80; i++ {
		ebuLatin[i] = rune(i)
	}
	// Extended range per Annex C, table order preserved; positions not
	// assigned a glyph by the standard map to the replacement space.
	extended := map[int]rune{
		0xC0: 'à', 0xC1: 'á', 0xC2: 'â', 0xC3: 'ä', 0xC5: 'å',
		0xC7: 'ç', 0xC8: 'è', 0xC9: 'é', 0xCA: 'ê', 0xCB: 'ë',
		0xCC: 'ì', 0xCD: 'í', 0xCE: 'î', 0xCF: 'ï',
		0xD1: 'ñ', 0xD2: 'ò', 0xD3: 'ó', 0xD4: 'ô', 0xD6: 'ö',
		0xD9: 'ù', 0xDA: 'ú', 0xDB: 'û', 0xDC: 'ü',
		0xDD: 'ý', 0xDF: 'ß',
		0xE0: 'À', 0xE1: 'Á', 0xE2: 'Â', 0xE3: 'Ä', 0xE5: 'Å',
		0xE7: 'Ç', 0xE8: 'È', 0xE9: 'É', 0xEA: 'Ê', 0xEB: 'Ë',
	}
	for i := 0x80; i < 0x100; i++ {
		if r, ok := extended[i]; ok {
			ebuLatin[i] = r
		} else {
			ebuLatin[i] = ' '
		}
	}
}

// EncodeEBULatin encodes text to the fixed 16-byte EBU Latin label
// field, space-padding or truncating as needed.
func EncodeEBULatin(text string) [16]byte {
	var out [16]byte
	for i := range out {
		out[i] = ' '
	}
	runes := []rune(text)
	for i := 0; i < len(out) && i < len(runes); i++ {
		out[i] = encodeRune(runes[i])
	}
	return out
}

func encodeRune(r rune) byte {
	for b, candidate := range ebuLatin {
		if candidate == r {
			return byte(b)
		}
	}
	return '?'
}
