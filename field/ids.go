package field

// Type codes.
const (
	TypeAttribute  byte = 0xA0
	TypeCopyCount  byte = 0xA2
	TypeDescriptor byte = 0xA6
	TypeControl    byte = 0xA7
	TypeBegin      byte = 0xA8
	TypeEnd        byte = 0xA9
	TypeMap        byte = 0xAB
	TypePosition   byte = 0xAC
	TypeProcess    byte = 0xAD
	TypeInclude    byte = 0xAF
	TypeTable      byte = 0xB0
	TypeMigration  byte = 0xB1
	TypeVariable   byte = 0xB2
	TypeLink       byte = 0xB4
	TypeData       byte = 0xEE
)

// Category codes.
const (
	CatPageSegment              byte = 0x5F
	CatObjectArea               byte = 0x6B
	CatColorAttributeTable      byte = 0x77
	CatIMImage                  byte = 0x7B
	CatMedium                   byte = 0x88
	CatCodedFont                byte = 0x8A
	CatProcessElement           byte = 0x90
	CatObjectContainer          byte = 0x92
	CatPresentationText         byte = 0x9B
	CatIndex                    byte = 0xA7
	CatDocument                 byte = 0xA8
	CatPageGroup                byte = 0xAD
	CatPage                     byte = 0xAF
	CatGraphics                 byte = 0xBB
	CatDataResource             byte = 0xC3
	CatDocumentEnvironmentGroup byte = 0xC4
	CatResourceGroup            byte = 0xC6
	CatObjectEnvironmentGroup   byte = 0xC7
	CatActiveEnvironmentGroup   byte = 0xC9
	CatMediumMap                byte = 0xCC
	CatFormMap                  byte = 0xCD
	CatNameResource             byte = 0xCE
	CatPageOverlay              byte = 0xD8
	CatResourceEnvironmentGroup byte = 0xD9
	CatOverlay                  byte = 0xDF
	CatDataSuppression          byte = 0xEA
	CatBarCode                  byte = 0xEB
	CatNoOperation              byte = 0xEE
	CatImage                    byte = 0xFB
)

// Structured field identifiers used by the encoder.
var (
	BeginDocument = ID(TypeBegin, CatDocument)
	EndDocument   = ID(TypeEnd, CatDocument)

	BeginPageGroup = ID(TypeBegin, CatPageGroup)
	EndPageGroup   = ID(TypeEnd, CatPageGroup)

	BeginPage = ID(TypeBegin, CatPage)
	EndPage   = ID(TypeEnd, CatPage)

	BeginOverlay = ID(TypeBegin, CatOverlay)
	EndOverlay   = ID(TypeEnd, CatOverlay)

	BeginActiveEnvironmentGroup = ID(TypeBegin, CatActiveEnvironmentGroup)
	EndActiveEnvironmentGroup   = ID(TypeEnd, CatActiveEnvironmentGroup)

	BeginObjectEnvironmentGroup = ID(TypeBegin, CatObjectEnvironmentGroup)
	EndObjectEnvironmentGroup   = ID(TypeEnd, CatObjectEnvironmentGroup)

	BeginResourceGroup = ID(TypeBegin, CatResourceGroup)
	EndResourceGroup   = ID(TypeEnd, CatResourceGroup)

	BeginResource = ID(TypeBegin, CatNameResource)
	EndResource   = ID(TypeEnd, CatNameResource)

	BeginResourceEnvironmentGroup = ID(TypeBegin, CatResourceEnvironmentGroup)
	EndResourceEnvironmentGroup   = ID(TypeEnd, CatResourceEnvironmentGroup)

	BeginPageSegment = ID(TypeBegin, CatPageSegment)
	EndPageSegment   = ID(TypeEnd, CatPageSegment)

	BeginObjectContainer    = ID(TypeBegin, CatObjectContainer)
	EndObjectContainer      = ID(TypeEnd, CatObjectContainer)
	ObjectContainerData     = ID(TypeData, CatObjectContainer)
	ContainerDataDescriptor = ID(TypeDescriptor, CatObjectContainer)
	MapContainerData        = ID(TypeMap, CatObjectContainer)

	BeginPresentationText      = ID(TypeBegin, CatPresentationText)
	EndPresentationText        = ID(TypeEnd, CatPresentationText)
	PresentationTextData       = ID(TypeData, CatPresentationText)
	PresentationTextDescriptor = ID(TypeMigration, CatPresentationText)

	BeginImage          = ID(TypeBegin, CatImage)
	EndImage            = ID(TypeEnd, CatImage)
	ImageDataDescriptor = ID(TypeDescriptor, CatImage)
	ImagePictureData    = ID(TypeData, CatImage)
	MapImageObject      = ID(TypeMap, CatImage)

	BeginGraphics          = ID(TypeBegin, CatGraphics)
	EndGraphics            = ID(TypeEnd, CatGraphics)
	GraphicsDataDescriptor = ID(TypeDescriptor, CatGraphics)
	GraphicsData           = ID(TypeData, CatGraphics)
	MapGraphicsObject      = ID(TypeMap, CatGraphics)

	PageDescriptor                 = ID(TypeDescriptor, CatPage)
	ObjectAreaDescriptor           = ID(TypeDescriptor, CatObjectArea)
	ObjectAreaPosition             = ID(TypePosition, CatObjectArea)
	MapCodedFont                   = ID(TypeMap, CatCodedFont)
	MapPageOverlay                 = ID(TypeMap, CatPageOverlay)
	MapDataResource                = ID(TypeMap, CatDataResource)
	IncludeObject                  = ID(TypeInclude, CatDataResource)
	IncludePageSegment             = ID(TypeInclude, CatPageSegment)
	IncludePageOverlay             = ID(TypeInclude, CatPageOverlay)
	PresentationEnvironmentControl = ID(TypeControl, CatDocument)
	TagLogicalElement              = ID(TypeAttribute, CatProcessElement)
	NoOperation                    = ID(TypeData, CatNoOperation)
	InvokeMediumMap                = ID(TypeMap, CatMediumMap)
)

var names = map[Identifier]string{
	BeginDocument:                  "BDT",
	EndDocument:                    "EDT",
	BeginPageGroup:                 "BNG",
	EndPageGroup:                   "ENG",
	BeginPage:                      "BPG",
	EndPage:                        "EPG",
	BeginOverlay:                   "BMO",
	EndOverlay:                     "EMO",
	BeginActiveEnvironmentGroup:    "BAG",
	EndActiveEnvironmentGroup:      "EAG",
	BeginObjectEnvironmentGroup:    "BOG",
	EndObjectEnvironmentGroup:      "EOG",
	BeginResourceGroup:             "BRG",
	EndResourceGroup:               "ERG",
	BeginResource:                  "BRS",
	EndResource:                    "ERS",
	BeginResourceEnvironmentGroup:  "BSG",
	EndResourceEnvironmentGroup:    "ESG",
	BeginPageSegment:               "BPS",
	EndPageSegment:                 "EPS",
	BeginObjectContainer:           "BOC",
	EndObjectContainer:             "EOC",
	ObjectContainerData:            "OCD",
	ContainerDataDescriptor:        "CDD",
	MapContainerData:               "MCD",
	BeginPresentationText:          "BPT",
	EndPresentationText:            "EPT",
	PresentationTextData:           "PTX",
	PresentationTextDescriptor:     "PTD",
	BeginImage:                     "BIM",
	EndImage:                       "EIM",
	ImageDataDescriptor:            "IDD",
	ImagePictureData:               "IPD",
	MapImageObject:                 "MIO",
	BeginGraphics:                  "BGR",
	EndGraphics:                    "EGR",
	GraphicsDataDescriptor:         "GDD",
	GraphicsData:                   "GAD",
	MapGraphicsObject:              "MGO",
	PageDescriptor:                 "PGD",
	ObjectAreaDescriptor:           "OBD",
	ObjectAreaPosition:             "OBP",
	MapCodedFont:                   "MCF",
	MapPageOverlay:                 "MPO",
	MapDataResource:                "MDR",
	IncludeObject:                  "IOB",
	IncludePageSegment:             "IPS",
	IncludePageOverlay:             "IPO",
	PresentationEnvironmentControl: "PEC",
	TagLogicalElement:              "TLE",
	NoOperation:                    "NOP",
	InvokeMediumMap:                "IMM",
}

// Name returns the MO:DCA acronym for id, or "" when unknown.
func Name(id Identifier) string { return names[id] }
