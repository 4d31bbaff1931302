package graph

import "slices"

// --- Data keys ---

// Keys of the two list-valued attributes that carry the precedence relation
// in a persisted node record.
const (
	KeyPrecedenceInlinks  = "precedence_inlinks"
	KeyPrecedenceOutlinks = "precedence_outlinks"

	// KeyOnsetBeats is written onto a symbol once its onset is resolved.
	KeyOnsetBeats = "onset_beats"
)

// --- Class names ---

const (
	ClassStaffGrouping    = "staffGrouping"
	ClassMeasureSeparator = "measureSeparator"

	ClassKeySignature  = "keySignature"
	ClassTimeSignature = "timeSignature"

	ClassStaffline  = "staffLine"
	ClassStaffspace = "staffSpace"
	ClassStaff      = "staff"
	ClassLegerLine  = "legerLine"
	ClassStem       = "stem"

	ClassTie = "tie"

	ClassGClef = "gClef"
	ClassCClef = "cClef"
	ClassFClef = "fClef"

	ClassNoteheadFull      = "noteheadFull"
	ClassNoteheadHalf      = "noteheadHalf"
	ClassNoteheadWhole     = "noteheadWhole"
	ClassNoteheadFullSmall = "noteheadFullSmall"
	ClassNoteheadHalfSmall = "noteheadHalfSmall"

	ClassRestWhole   = "restWhole"
	ClassRestHalf    = "restHalf"
	ClassRestQuarter = "restQuarter"
	ClassRest8th     = "rest8th"
	ClassRest16th    = "rest16th"
	ClassRest32nd    = "rest32nd"
	ClassRest64th    = "rest64th"
	ClassRestBreve   = "rest_breve"
	ClassRestLonga   = "rest_longa"

	ClassRepeatOneBar     = "repeat1Bar"
	ClassMultiMeasureRest = "multiMeasureRest"
	ClassAugmentationDot  = "augmentationDot"

	ClassTuple = "tuple"

	ClassFlag8thUp    = "flag8thUp"
	ClassFlag8thDown  = "flag8thDown"
	ClassFlag16thUp   = "flag16thUp"
	ClassFlag16thDown = "flag16thDown"
	ClassFlag32ndUp   = "flag32ndUp"
	ClassFlag32ndDown = "flag32ndDown"
	ClassFlag64thUp   = "flag64thUp"
	ClassFlag64thDown = "flag64thDown"

	ClassBeam = "beam"

	ClassAccidentalSharp       = "accidentalSharp"
	ClassAccidentalFlat        = "accidentalFlat"
	ClassAccidentalNatural     = "accidentalNatural"
	ClassAccidentalDoubleSharp = "accidentalDoubleSharp"
	ClassAccidentalDoubleFlat  = "accidentalDoubleFlat"

	ClassTimeSigCommon    = "timeSigCommon"
	ClassTimeSigCutCommon = "timeSigCutCommon"

	// ClassLetterOther doubles as the fraction separator of a time signature.
	ClassLetterOther = "characterOther"

	ClassNumeral0 = "numeral0"
	ClassNumeral1 = "numeral1"
	ClassNumeral2 = "numeral2"
	ClassNumeral3 = "numeral3"
	ClassNumeral4 = "numeral4"
	ClassNumeral5 = "numeral5"
	ClassNumeral6 = "numeral6"
	ClassNumeral7 = "numeral7"
	ClassNumeral8 = "numeral8"
	ClassNumeral9 = "numeral9"
)

// --- Class groups ---

var (
	StaffClasses          = []string{ClassStaffline, ClassStaffspace, ClassStaff}
	StafflineClasses      = []string{ClassStaffline, ClassStaffspace}
	StafflineLikeClasses  = []string{ClassStaffline, ClassLegerLine}
	SystemLevelClasses    = []string{ClassStaffGrouping, ClassMeasureSeparator}
	MeasureSeparatorClass = []string{ClassMeasureSeparator}

	NoteheadClasses = []string{
		ClassNoteheadFull, ClassNoteheadHalf, ClassNoteheadWhole,
		ClassNoteheadFullSmall, ClassNoteheadHalfSmall,
	}
	EmptyNoteheadClasses    = []string{ClassNoteheadHalf, ClassNoteheadWhole}
	GraceNoteheadClasses    = []string{ClassNoteheadFullSmall, ClassNoteheadHalfSmall}
	NongraceNoteheadClasses = []string{ClassNoteheadFull, ClassNoteheadHalf, ClassNoteheadWhole}

	ClefClasses = []string{ClassGClef, ClassCClef, ClassFClef}

	FlagClasses = []string{
		ClassFlag8thUp, ClassFlag8thDown, ClassFlag16thUp, ClassFlag16thDown,
		ClassFlag32ndUp, ClassFlag32ndDown, ClassFlag64thUp, ClassFlag64thDown,
	}
	FlagsAndBeamClasses = append(slices.Clone(FlagClasses), ClassBeam)

	AccidentalClasses = []string{
		ClassAccidentalSharp, ClassAccidentalFlat, ClassAccidentalNatural,
		ClassAccidentalDoubleSharp, ClassAccidentalDoubleFlat,
	}

	RestClasses = []string{
		ClassRestWhole, ClassRestHalf, ClassRestQuarter, ClassRest8th,
		ClassRest16th, ClassRest32nd, ClassRest64th, ClassMultiMeasureRest,
		ClassRestBreve, ClassRestLonga,
	}

	// MeasureLastingClasses take their duration from the active time signature.
	MeasureLastingClasses = []string{
		ClassRestWhole, ClassRestBreve, ClassRestLonga,
		ClassMultiMeasureRest, ClassRepeatOneBar,
	}

	NumeralClasses = []string{
		ClassNumeral0, ClassNumeral1, ClassNumeral2, ClassNumeral3, ClassNumeral4,
		ClassNumeral5, ClassNumeral6, ClassNumeral7, ClassNumeral8, ClassNumeral9,
	}
	TimeSignatureMemberClasses = append([]string{
		ClassTimeSigCommon, ClassTimeSigCutCommon, ClassLetterOther,
	}, NumeralClasses...)

	// DurationBearingClasses contribute to the onsets of their successors.
	DurationBearingClasses = append(slices.Clone(NongraceNoteheadClasses), RestClasses...)
)

// IsClass reports whether class is one of classes.
func IsClass(class string, classes []string) bool {
	return slices.Contains(classes, class)
}

// NumeralDigit returns the digit a numeral class denotes.
func NumeralDigit(class string) (int, bool) {
	i := slices.Index(NumeralClasses, class)
	return i, i >= 0
}
