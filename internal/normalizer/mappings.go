package normalizer

import (
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// FieldMap maps canonical attribute names to the source's column names.
type FieldMap map[string]string

// Canonical attribute names used as FieldMap keys.
const (
	attrCode         = "code"
	attrName         = "name"
	attrManufacturer = "manufacturer"
	attrDosageForm   = "dosage_form"
	attrPrice        = "price"
	attrValidFrom    = "valid_from"
	attrValidTo      = "valid_to"
	attrAddress      = "address"
	attrRegionCode   = "region_code"
	attrTypeCode     = "type_code"
	attrTypeName     = "type_name"
)

// mappings is the fixed field-mapping table per source and record kind.
var mappings = map[healthdata.SourceKind]map[healthdata.RecordKind]FieldMap{
	healthdata.SourceNedrug: {
		healthdata.KindMedicine: {
			attrCode:         "품목기준코드",
			attrName:         "제품명",
			attrManufacturer: "업체명",
			attrDosageForm:   "제형",
			attrValidFrom:    "허가일",
		},
	},
	healthdata.SourceHiraDownload: {
		healthdata.KindMedicine: {
			attrCode:         "제품코드",
			attrName:         "제품명",
			attrManufacturer: "업체명",
			attrDosageForm:   "제형",
			attrPrice:        "상한금액",
			attrValidFrom:    "적용일자",
			attrValidTo:      "적용종료일자",
		},
	},
	healthdata.SourceHiraOpenData: {
		healthdata.KindHospital: {
			attrCode:       "암호화요양기호",
			attrName:       "요양기관명",
			attrAddress:    "주소",
			attrRegionCode: "시도코드",
			attrTypeCode:   "종별코드",
			attrTypeName:   "종별코드명",
		},
		healthdata.KindPharmacy: {
			attrCode:       "암호화요양기호",
			attrName:       "요양기관명",
			attrAddress:    "주소",
			attrRegionCode: "시도코드",
			attrTypeCode:   "종별코드",
			attrTypeName:   "종별코드명",
		},
	},
	healthdata.SourceHealth: {
		healthdata.KindMedicine: {
			attrCode:         "code",
			attrName:         "name",
			attrManufacturer: "company",
			attrDosageForm:   "form",
		},
	},
}

// MappingFor returns the field map for a source and record kind.
func MappingFor(source healthdata.SourceKind, kind healthdata.RecordKind) (FieldMap, bool) {
	byKind, ok := mappings[source]
	if !ok {
		return nil, false
	}
	m, ok := byKind[kind]
	return m, ok
}
