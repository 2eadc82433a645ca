package world

import "fmt"

// Kind is the closed set of entity variants.
type Kind uint8

const (
	KindWorkerEmpty Kind = iota + 1
	KindWorkerFull
	KindTree
	KindSapling
	KindStump
	KindFairy
	KindHouse
	KindObstacle
)

// Kinds lists every valid Kind.
var Kinds = []Kind{
	KindWorkerEmpty,
	KindWorkerFull,
	KindTree,
	KindSapling,
	KindStump,
	KindFairy,
	KindHouse,
	KindObstacle,
}

var kindNames = map[Kind]string{
	KindWorkerEmpty: "worker",
	KindWorkerFull:  "worker_full",
	KindTree:        "tree",
	KindSapling:     "sapling",
	KindStump:       "stump",
	KindFairy:       "fairy",
	KindHouse:       "house",
	KindObstacle:    "obstacle",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ImageKey is the image provider key used for entities of this kind.
func (k Kind) ImageKey() string {
	if k == KindWorkerFull {
		return KindWorkerEmpty.String()
	}
	return k.String()
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}
