package devicecontroller

import (
	"strconv"

	"github.com/cilium/ebpf/asm"
	"golang.org/x/xerrors"

	"github.com/mec-project/devicemanager/internal/deviceaccess"
)

// Kernel-side struct bpf_cgroup_dev_ctx, as laid out for
// BPF_PROG_TYPE_CGROUP_DEVICE (include/uapi/linux/bpf.h):
//
//	struct bpf_cgroup_dev_ctx {
//	        __u32 access_type; /* (access << 16) | dev_type */
//	        __u32 major;
//	        __u32 minor;
//	};
//
// The kernel invokes the program once per open/mknod/read/write attempt,
// with exactly one access bit set in the upper 16 bits of access_type.
const (
	ctxOffAccessType = 0
	ctxOffMajor      = 4
	ctxOffMinor      = 8

	devTypeBlock uint32 = 1 // BPF_DEVCG_DEV_BLOCK
	devTypeChar  uint32 = 2 // BPF_DEVCG_DEV_CHAR

	accBitMknod uint32 = 1 << 0 // BPF_DEVCG_ACC_MKNOD
	accBitRead  uint32 = 1 << 1 // BPF_DEVCG_ACC_READ
	accBitWrite uint32 = 1 << 2 // BPF_DEVCG_ACC_WRITE
)

// Registers used throughout the generated program. R1 is the incoming ctx
// pointer per the BPF calling convention; R2-R4 cache the three ctx fields
// since every rule re-reads them; R5-R6 are scratch.
const (
	regCtx      = asm.R1
	regAccess   = asm.R2
	regMajor    = asm.R3
	regMinor    = asm.R4
	regScratch1 = asm.R5
	regScratch2 = asm.R6
)

func devType(t deviceaccess.Type) (val uint32, concrete bool) {
	switch t {
	case deviceaccess.Block:
		return devTypeBlock, true
	case deviceaccess.Character:
		return devTypeChar, true
	default:
		return 0, false // All: no type comparison needed.
	}
}

func accessMask(a deviceaccess.Access) uint32 {
	var m uint32
	if a.Mknod {
		m |= accBitMknod
	}
	if a.Read {
		m |= accBitRead
	}
	if a.Write {
		m |= accBitWrite
	}
	return m
}

// buildProgram compiles deny (checked first, must already be non-wildcard)
// and allow (wildcards permitted) into a
// BPF_PROG_TYPE_CGROUP_DEVICE program body. A request that matches no rule
// falls through to a default deny, which is what makes an empty allow list
// equivalent to "nothing is permitted" and what gives a deny entry
// precedence over any allow entry for the same access.
func buildProgram(allow, deny []deviceaccess.Entry) (asm.Instructions, error) {
	for _, d := range deny {
		if d.HasWildcard() {
			return nil, xerrors.Errorf("deny entry %q must not be wildcarded", deviceaccess.Stringify(d))
		}
	}

	insns := asm.Instructions{
		asm.LoadMem(regAccess, regCtx, ctxOffAccessType, asm.Word),
		asm.LoadMem(regMajor, regCtx, ctxOffMajor, asm.Word),
		asm.LoadMem(regMinor, regCtx, ctxOffMinor, asm.Word),
	}

	type rule struct {
		entry  deviceaccess.Entry
		allows bool
	}
	rules := make([]rule, 0, len(allow)+len(deny))
	for _, d := range deny {
		rules = append(rules, rule{entry: d, allows: false})
	}
	for _, a := range allow {
		rules = append(rules, rule{entry: a, allows: true})
	}

	nextLabel := func(i int) string { return "dev_rule_" + strconv.Itoa(i) }

	for i, r := range rules {
		label := nextLabel(i)
		fail := nextLabel(i + 1)

		block := ruleInstructions(r.entry, fail)
		block[0] = block[0].Sym(label)
		insns = append(insns, block...)

		verdict := int32(0)
		if r.allows {
			verdict = 1
		}
		insns = append(insns,
			asm.Mov.Imm(asm.R0, verdict),
			asm.Return(),
		)
	}

	defaultLabel := nextLabel(len(rules))
	insns = append(insns,
		asm.Mov.Imm(asm.R0, 0).Sym(defaultLabel),
		asm.Return(),
	)

	return insns, nil
}

// ruleInstructions builds the condition chain for a single rule: each
// check jumps to failLabel on mismatch, falling through when every
// condition holds. The caller is responsible for attaching this rule's own
// label to the first returned instruction and for emitting the verdict
// after the chain.
func ruleInstructions(e deviceaccess.Entry, failLabel string) asm.Instructions {
	var insns asm.Instructions

	mask := accessMask(e.Access)
	insns = append(insns,
		asm.Mov.Reg(regScratch1, regAccess),
		asm.RSh.Imm(regScratch1, 16),
		asm.And.Imm(regScratch1, int32(mask)),
		asm.JEq.Imm(regScratch1, 0, failLabel),
	)

	if t, concrete := devType(e.Selector.Type); concrete {
		insns = append(insns,
			asm.Mov.Reg(regScratch2, regAccess),
			asm.And.Imm(regScratch2, 0xffff),
			asm.JNE.Imm(regScratch2, int32(t), failLabel),
		)
	}

	if e.Selector.Major != nil {
		insns = append(insns, asm.JNE.Imm(regMajor, int32(*e.Selector.Major), failLabel))
	}
	if e.Selector.Minor != nil {
		insns = append(insns, asm.JNE.Imm(regMinor, int32(*e.Selector.Minor), failLabel))
	}

	return insns
}
