package runtime

import "encoding/json"

// LinuxSeccomp is a seccomp filter for the container process.
type LinuxSeccomp struct {
	DefaultAction    LinuxSeccompAction       `json:"defaultAction"`
	DefaultErrnoRet  *uint32                  `json:"defaultErrnoRet,omitempty"`
	Architectures    []Arch                   `json:"architectures,omitempty"`
	Flags            []LinuxSeccompFilterFlag `json:"flags,omitempty"`
	ListenerPath     string                   `json:"listenerPath,omitempty"`
	ListenerMetadata string                   `json:"listenerMetadata,omitempty"`
	Syscalls         []LinuxSyscall           `json:"syscalls,omitempty"`
}

type LinuxSeccompAction string

const (
	ActKill        LinuxSeccompAction = "SCMP_ACT_KILL"
	ActKillProcess LinuxSeccompAction = "SCMP_ACT_KILL_PROCESS"
	ActTrap        LinuxSeccompAction = "SCMP_ACT_TRAP"
	ActErrno       LinuxSeccompAction = "SCMP_ACT_ERRNO"
	ActNotify      LinuxSeccompAction = "SCMP_ACT_NOTIFY"
	ActTrace       LinuxSeccompAction = "SCMP_ACT_TRACE"
	ActLog         LinuxSeccompAction = "SCMP_ACT_LOG"
	ActAllow       LinuxSeccompAction = "SCMP_ACT_ALLOW"
)

var seccompActions = map[LinuxSeccompAction]uint32{
	ActKill:        0x00000000,
	ActKillProcess: 0x80000000,
	ActTrap:        0x00030000,
	ActErrno:       0x00050001,
	ActNotify:      0x7fc00000,
	ActTrace:       0x7ff00001,
	ActLog:         0x7ffc0000,
	ActAllow:       0x7fff0000,
}

func ParseSeccompAction(s string) (LinuxSeccompAction, error) {
	return parseKeyed("seccomp action", s, seccompActions)
}

// Value is the libseccomp action code. The zero action means allow.
func (a LinuxSeccompAction) Value() uint32 {
	if a == "" {
		a = ActAllow
	}
	return seccompActions[a]
}

func (a LinuxSeccompAction) String() string {
	if a == "" {
		return string(ActAllow)
	}
	return string(a)
}

func (a LinuxSeccompAction) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }

func (a *LinuxSeccompAction) UnmarshalJSON(b []byte) error {
	return unmarshalKeyed(b, "seccomp action", seccompActions, a)
}

// Arch is a seccomp architecture token.
type Arch string

const (
	ArchNative      Arch = "SCMP_ARCH_NATIVE"
	ArchX86         Arch = "SCMP_ARCH_X86"
	ArchX86_64      Arch = "SCMP_ARCH_X86_64"
	ArchX32         Arch = "SCMP_ARCH_X32"
	ArchARM         Arch = "SCMP_ARCH_ARM"
	ArchAARCH64     Arch = "SCMP_ARCH_AARCH64"
	ArchMIPS        Arch = "SCMP_ARCH_MIPS"
	ArchMIPS64      Arch = "SCMP_ARCH_MIPS64"
	ArchMIPS64N32   Arch = "SCMP_ARCH_MIPS64N32"
	ArchMIPSEL      Arch = "SCMP_ARCH_MIPSEL"
	ArchMIPSEL64    Arch = "SCMP_ARCH_MIPSEL64"
	ArchMIPSEL64N32 Arch = "SCMP_ARCH_MIPSEL64N32"
	ArchPPC         Arch = "SCMP_ARCH_PPC"
	ArchPPC64       Arch = "SCMP_ARCH_PPC64"
	ArchPPC64LE     Arch = "SCMP_ARCH_PPC64LE"
	ArchS390        Arch = "SCMP_ARCH_S390"
	ArchS390X       Arch = "SCMP_ARCH_S390X"
)

var seccompArchs = map[Arch]uint32{
	ArchNative:      0x00000000,
	ArchX86:         0x40000003,
	ArchX86_64:      0xc000003e,
	ArchX32:         0x4000003e,
	ArchARM:         0x40000028,
	ArchAARCH64:     0xc00000b7,
	ArchMIPS:        0x00000008,
	ArchMIPS64:      0x80000008,
	ArchMIPS64N32:   0xa0000008,
	ArchMIPSEL:      0x40000008,
	ArchMIPSEL64:    0xc0000008,
	ArchMIPSEL64N32: 0xe0000008,
	ArchPPC:         0x00000014,
	ArchPPC64:       0x80000015,
	ArchPPC64LE:     0xc0000015,
	ArchS390:        0x00000016,
	ArchS390X:       0x80000016,
}

func ParseArch(s string) (Arch, error) {
	return parseKeyed("seccomp arch", s, seccompArchs)
}

// Value is the audit architecture constant.
func (a Arch) Value() uint32 { return seccompArchs[a] }

func (a Arch) String() string { return string(a) }

func (a *Arch) UnmarshalJSON(b []byte) error {
	return unmarshalKeyed(b, "seccomp arch", seccompArchs, a)
}

type LinuxSeccompFilterFlag string

const (
	FilterFlagLog       LinuxSeccompFilterFlag = "SECCOMP_FILTER_FLAG_LOG"
	FilterFlagTsync     LinuxSeccompFilterFlag = "SECCOMP_FILTER_FLAG_TSYNC"
	FilterFlagSpecAllow LinuxSeccompFilterFlag = "SECCOMP_FILTER_FLAG_SPEC_ALLOW"
)

var filterFlags = []LinuxSeccompFilterFlag{FilterFlagLog, FilterFlagTsync, FilterFlagSpecAllow}

func ParseSeccompFilterFlag(s string) (LinuxSeccompFilterFlag, error) {
	return parseEnum("seccomp filter flag", s, filterFlags)
}

func (f LinuxSeccompFilterFlag) String() string { return string(f) }

func (f *LinuxSeccompFilterFlag) UnmarshalJSON(b []byte) error {
	return unmarshalEnum(b, "seccomp filter flag", filterFlags, f)
}

type LinuxSeccompOperator string

const (
	OpNotEqual     LinuxSeccompOperator = "SCMP_CMP_NE"
	OpLessThan     LinuxSeccompOperator = "SCMP_CMP_LT"
	OpLessEqual    LinuxSeccompOperator = "SCMP_CMP_LE"
	OpEqualTo      LinuxSeccompOperator = "SCMP_CMP_EQ"
	OpGreaterEqual LinuxSeccompOperator = "SCMP_CMP_GE"
	OpGreaterThan  LinuxSeccompOperator = "SCMP_CMP_GT"
	OpMaskedEqual  LinuxSeccompOperator = "SCMP_CMP_MASKED_EQ"
)

var seccompOperators = map[LinuxSeccompOperator]uint32{
	OpNotEqual:     1,
	OpLessThan:     2,
	OpLessEqual:    3,
	OpEqualTo:      4,
	OpGreaterEqual: 5,
	OpGreaterThan:  6,
	OpMaskedEqual:  7,
}

func ParseSeccompOperator(s string) (LinuxSeccompOperator, error) {
	return parseKeyed("seccomp operator", s, seccompOperators)
}

// Value is the libseccomp comparison code. The zero operator means equal.
func (o LinuxSeccompOperator) Value() uint32 {
	if o == "" {
		o = OpEqualTo
	}
	return seccompOperators[o]
}

func (o LinuxSeccompOperator) String() string {
	if o == "" {
		return string(OpEqualTo)
	}
	return string(o)
}

func (o LinuxSeccompOperator) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

func (o *LinuxSeccompOperator) UnmarshalJSON(b []byte) error {
	return unmarshalKeyed(b, "seccomp operator", seccompOperators, o)
}

// LinuxSyscall applies Action to the named syscalls when Args match.
type LinuxSyscall struct {
	Names    []string           `json:"names"`
	Action   LinuxSeccompAction `json:"action"`
	ErrnoRet *uint32            `json:"errnoRet,omitempty"`
	Args     []LinuxSeccompArg  `json:"args,omitempty"`
}

type LinuxSeccompArg struct {
	Index    uint                 `json:"index"`
	Value    uint64               `json:"value"`
	ValueTwo *uint64              `json:"valueTwo,omitempty"`
	Op       LinuxSeccompOperator `json:"op"`
}
