// Package util provides helpers shared by the report back ends and the CLI.
package util

import (
	"fmt"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// TagInfo names a DICOM attribute that may be overridden on archived reports.
type TagInfo struct {
	Name string
	Tag  tag.Tag
}

// tagRegistry maps lowercase tag names to the attributes users may set.
// UIDs, pixel description and patient identity come from the session and
// cannot be overridden.
var tagRegistry = map[string]TagInfo{
	"patientbirthdate":            {Name: "PatientBirthDate", Tag: tag.PatientBirthDate},
	"patientsex":                  {Name: "PatientSex", Tag: tag.PatientSex},
	"institutionname":             {Name: "InstitutionName", Tag: tag.InstitutionName},
	"institutionaldepartmentname": {Name: "InstitutionalDepartmentName", Tag: tag.InstitutionalDepartmentName},
	"referringphysicianname":      {Name: "ReferringPhysicianName", Tag: tag.ReferringPhysicianName},
	"performingphysicianname":     {Name: "PerformingPhysicianName", Tag: tag.PerformingPhysicianName},
	"operatorsname":               {Name: "OperatorsName", Tag: tag.OperatorsName},
	"accessionnumber":             {Name: "AccessionNumber", Tag: tag.AccessionNumber},
	"stationname":                 {Name: "StationName", Tag: tag.StationName},
	"studydescription":            {Name: "StudyDescription", Tag: tag.StudyDescription},
	"seriesdescription":           {Name: "SeriesDescription", Tag: tag.SeriesDescription},
	"manufacturer":                {Name: "Manufacturer", Tag: tag.Manufacturer},
}

// GetTagByName returns the attribute for a tag name, ignoring case. Unknown
// names get a suggestion when one is close enough.
func GetTagByName(name string) (TagInfo, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if info, ok := tagRegistry[key]; ok {
		return info, nil
	}

	if suggestion := closestTagName(key); suggestion != "" {
		return TagInfo{}, fmt.Errorf("unknown tag %q, did you mean %q?", name, suggestion)
	}
	return TagInfo{}, fmt.Errorf("unknown tag %q", name)
}

// TagOverride is a parsed Name=Value pair.
type TagOverride struct {
	Info  TagInfo
	Value string
}

// ParsedTags holds overrides in tag order.
type ParsedTags []TagOverride

// ParseTagFlags parses repeated "TagName=Value" arguments. A later value for
// the same tag replaces an earlier one.
func ParseTagFlags(flags []string) (ParsedTags, error) {
	seen := make(map[tag.Tag]int, len(flags))
	var out ParsedTags
	for _, f := range flags {
		name, value, ok := strings.Cut(f, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid tag %q, expected TagName=Value", f)
		}
		info, err := GetTagByName(name)
		if err != nil {
			return nil, err
		}
		if i, dup := seen[info.Tag]; dup {
			out[i].Value = value
			continue
		}
		seen[info.Tag] = len(out)
		out = append(out, TagOverride{Info: info, Value: value})
	}

	sort.Slice(out, func(i, j int) bool { return TagLess(out[i].Info.Tag, out[j].Info.Tag) })
	return out, nil
}

// ParseTagMap parses tag overrides from a name to value map, as found in
// configuration files.
func ParseTagMap(m map[string]string) (ParsedTags, error) {
	seen := make(map[tag.Tag]int, len(m))
	var out ParsedTags
	for name, value := range m {
		info, err := GetTagByName(name)
		if err != nil {
			return nil, err
		}
		if i, dup := seen[info.Tag]; dup {
			out[i].Value = value
			continue
		}
		seen[info.Tag] = len(out)
		out = append(out, TagOverride{Info: info, Value: value})
	}

	sort.Slice(out, func(i, j int) bool { return TagLess(out[i].Info.Tag, out[j].Info.Tag) })
	return out, nil
}

// TagLess orders tags by group then element.
func TagLess(a, b tag.Tag) bool {
	if a.Group != b.Group {
		return a.Group < b.Group
	}
	return a.Element < b.Element
}

// closestTagName returns the registered name nearest to input, or "" when
// nothing is within a few edits.
func closestTagName(input string) string {
	const maxDistance = 5
	best := maxDistance + 1
	var match string

	// Sorted keys keep the suggestion stable when two names tie.
	keys := make([]string, 0, len(tagRegistry))
	for k := range tagRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if d := editDistance(input, k); d < best {
			best = d
			match = tagRegistry[k].Name
		}
	}
	return match
}

// editDistance is the Levenshtein distance between a and b, computed with
// two rolling rows.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			sub := prev[j-1]
			if a[i-1] != b[j-1] {
				sub++
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, sub)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
