package layout

import (
	"fmt"
	"strings"
)

// OS is the operating-system family of a target triple.
type OS uint8

const (
	OSFreestanding OS = iota
	OSLinux
	OSDarwin
	OSWindows
	OSFreeBSD
	OSOpenBSD
	OSDragonFly
	OSSolaris
)

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSDarwin:
		return "darwin"
	case OSWindows:
		return "windows"
	case OSFreeBSD:
		return "freebsd"
	case OSOpenBSD:
		return "openbsd"
	case OSDragonFly:
		return "dragonfly"
	case OSSolaris:
		return "solaris"
	default:
		return "freestanding"
	}
}

// RealPrecision selects the storage of the `real` type.
type RealPrecision uint8

const (
	RealDefault RealPrecision = iota // target default (quad on riscv64)
	RealDouble
	RealQuad
)

// ParseRealPrecision converts a config string to a RealPrecision.
func ParseRealPrecision(s string) (RealPrecision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return RealDefault, nil
	case "double":
		return RealDouble, nil
	case "quad":
		return RealQuad, nil
	default:
		return RealDefault, fmt.Errorf("invalid real precision: %q (expected: default|double|quad)", s)
	}
}

// Target describes the ABI target triple and its scalar properties.
type Target struct {
	Triple   string // e.g. "riscv64-unknown-linux-gnu"
	Arch     string // e.g. "riscv64"
	OS       OS
	PtrSize  int // bytes
	PtrAlign int // bytes

	// RealSize and RealAlign describe the `real` type (C long double).
	RealSize  int
	RealAlign int
}

// RealIsQuad reports whether `real` is IEEE binary128 on this target.
func (t Target) RealIsQuad() bool {
	return t.RealSize == 16
}

// RISCV64LinuxGNU is the default target of the lowering.
func RISCV64LinuxGNU() Target {
	tgt, err := ParseTriple("riscv64-unknown-linux-gnu", RealDefault)
	if err != nil {
		panic(err)
	}
	return tgt
}

// ParseTriple builds a Target from an LLVM-style triple.
func ParseTriple(triple string, precision RealPrecision) (Target, error) {
	parts := strings.Split(strings.TrimSpace(triple), "-")
	if len(parts) < 2 || parts[0] == "" {
		return Target{}, fmt.Errorf("invalid target triple: %q", triple)
	}
	tgt := Target{
		Triple: triple,
		Arch:   parts[0],
		OS:     parseOS(parts[1:]),
	}
	switch tgt.Arch {
	case "riscv64", "aarch64", "x86_64", "loongarch64", "wasm64":
		tgt.PtrSize, tgt.PtrAlign = 8, 8
	case "riscv32", "i686", "x86", "arm", "wasm32":
		tgt.PtrSize, tgt.PtrAlign = 4, 4
	default:
		return Target{}, fmt.Errorf("unsupported target architecture: %q", tgt.Arch)
	}

	switch precision {
	case RealDouble:
		tgt.RealSize, tgt.RealAlign = 8, 8
	case RealQuad:
		tgt.RealSize, tgt.RealAlign = 16, 16
	default:
		switch tgt.Arch {
		case "riscv64", "riscv32", "loongarch64", "wasm32", "wasm64", "aarch64":
			tgt.RealSize, tgt.RealAlign = 16, 16
		case "x86_64":
			tgt.RealSize, tgt.RealAlign = 16, 16 // x87 80-bit, padded
		default:
			tgt.RealSize, tgt.RealAlign = 8, 8
		}
		if tgt.Arch == "aarch64" && (tgt.OS == OSDarwin || tgt.OS == OSWindows) {
			tgt.RealSize, tgt.RealAlign = 8, 8
		}
	}
	return tgt, nil
}

func parseOS(parts []string) OS {
	for _, p := range parts {
		switch {
		case p == "linux" || strings.HasPrefix(p, "linux"):
			return OSLinux
		case strings.HasPrefix(p, "darwin") || strings.HasPrefix(p, "macos") || strings.HasPrefix(p, "ios"):
			return OSDarwin
		case strings.HasPrefix(p, "windows") || p == "win32":
			return OSWindows
		case strings.HasPrefix(p, "freebsd"):
			return OSFreeBSD
		case strings.HasPrefix(p, "openbsd"):
			return OSOpenBSD
		case strings.HasPrefix(p, "dragonfly"):
			return OSDragonFly
		case strings.HasPrefix(p, "solaris"):
			return OSSolaris
		}
	}
	return OSFreestanding
}
