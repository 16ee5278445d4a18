package cartridge

// licensees maps two-character new licensee codes to publisher names.
var licensees = map[string]string{
	"00": "none",
	"01": "Nintendo R&D1",
	"08": "Capcom",
	"13": "Electronic Arts",
	"18": "Hudson Soft",
	"19": "b-ai",
	"20": "kss",
	"22": "pow",
	"24": "PCM Complete",
	"25": "san-x",
	"28": "Kemco Japan",
	"29": "seta",
	"30": "Viacom",
	"31": "Nintendo",
	"32": "Bandai",
	"33": "Ocean/Acclaim",
	"34": "Konami",
	"35": "Hector",
	"37": "Taito",
	"38": "Hudson",
	"39": "Banpresto",
	"41": "UbiSoft",
	"42": "Atlus",
	"44": "Malibu",
	"46": "angel",
	"47": "Bullet-Proof",
	"49": "irem",
	"50": "Absolute",
	"51": "Acclaim",
	"52": "Activision",
	"53": "American sammy",
	"54": "Konami",
	"55": "Hi tech entertainment",
	"56": "LJN",
	"57": "Matchbox",
	"58": "Mattel",
	"59": "Milton Bradley",
	"60": "Titus",
	"61": "Virgin",
	"64": "LucasArts",
	"67": "Ocean",
	"69": "Electronic Arts",
	"70": "Infogrames",
	"71": "Interplay",
	"72": "Broderbund",
	"73": "sculptured",
	"75": "sci",
	"78": "THQ",
	"79": "Accolade",
	"80": "misawa",
	"83": "lozc",
	"86": "tokuma shoten i*",
	"87": "tsukuda ori*",
	"91": "Chunsoft",
	"92": "Video system",
	"93": "Ocean/Acclaim",
	"95": "Varie",
	"96": "Yonezawa/s'pal",
	"97": "Kaneko",
	"99": "Pack in soft",
}

// LicenseeName returns the publisher for a new licensee code, or "Unknown".
func LicenseeName(code string) string {
	if name, ok := licensees[code]; ok {
		return name
	}
	return "Unknown"
}
