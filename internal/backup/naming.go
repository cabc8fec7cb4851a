package backup

import (
	"strings"
	"time"
)

const archiveTimeLayout = "2006_01_02__15_04_05"

// ArchiveName returns "<name>_backup_<YYYY_MM_DD__HH_MM_SS><ext>". The
// timestamp has second precision, so two runs of one system within the same
// second produce the same name and the second run fails with a destination
// conflict.
func ArchiveName(systemName string, t time.Time, ext string) string {
	return SanitizeName(systemName) + "_backup_" + t.Format(archiveTimeLayout) + ext
}

// SanitizeName replaces path separators, reserved characters and control
// characters so the name is safe as a single file name component.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "system"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
