package portfolio

// Vocabulary names one of the three naming schemes for building uses.
type Vocabulary string

const (
	Buildee Vocabulary = "buildee"
	PM      Vocabulary = "pm"
	PMXML   Vocabulary = "pmxml"
)

type useType struct {
	Buildee string
	PM      string
	PMXML   string
}

func (u useType) in(v Vocabulary) string {
	switch v {
	case Buildee:
		return u.Buildee
	case PM:
		return u.PM
	case PMXML:
		return u.PMXML
	}
	return ""
}

var defaultUse = useType{Buildee: "office", PM: "Office", PMXML: "office"}

// microbreweries has no Portfolio Manager category of its own.
var microbreweries = useType{Buildee: "microbreweries", PM: "Manufacturing/Industrial Plant", PMXML: "other"}

var useTypes = []useType{
	{"adultEducation", "Adult Education", "adultEducation"},
	{"ambulatorySurgicalCenter", "Ambulatory Surgical Center", "ambulatorySurgicalCenter"},
	{"aquarium", "Aquarium", "aquarium"},
	{"automobileDealership", "Automobile Dealership", "automobileDealership"},
	{"bankBranch", "Bank Branch", "bankBranch"},
	{"barNightclub", "Bar/Nightclub", "barNightclub"},
	{"barracks", "Barracks", "barracks"},
	{"bowlingAlley", "Bowling Alley", "bowlingAlley"},
	{"casino", "Casino", "casino"},
	{"college", "College/University", "collegeUniversity"},
	{"convenienceStoreWithGas", "Convenience Store with Gas Station", "convenienceStoreWithGasStation"},
	{"convenienceStore", "Convenience Store without Gas Station", "convenienceStoreWithoutGasStation"},
	{"conventionCenter", "Convention Center", "conventionCenter"},
	{"courthouse", "Courthouse", "courthouse"},
	{"dataCenter", "Data Center", "dataCenter"},
	{"distributionCenter", "Distribution Center", "distributionCenter"},
	{"waterTreatment", "Drinking Water Treatment & Distribution", "drinkingWaterTreatmentAndDistribution"},
	{"enclosedMall", "Enclosed Mall", "enclosedMall"},
	{"powerStation", "Energy/Power Station", "energyPowerStation"},
	{"fastFood", "Fast Food Restaurant", "fastFoodRestaurant"},
	{"financialOffice", "Financial Office", "financialOffice"},
	{"fireStation", "Fire Station", "fireStation"},
	{"fitnessCenter", "Fitness Center/Health Club/Gym", "fitnessCenterHealthClubGym"},
	{"foodSales", "Food Sales", "foodSales"},
	{"foodService", "Food Service", "foodService"},
	{"hospital", "Hospital (General Medical & Surgical)", "hospital"},
	{"hotel", "Hotel", "hotel"},
	{"iceRink", "Ice/Curling Rink", "iceCurlingRink"},
	{"indoorArena", "Indoor Arena", "indoorArena"},
	{"school", "K-12 School", "k12School"},
	{"laboratory", "Laboratory", "laboratory"},
	{"library", "Library", "library"},
	{"lifestyleCenter", "Lifestyle Center", "lifestyleCenter"},
	{"postOffice", "Mailing Center/Post Office", "mailingCenterPostOffice"},
	{"manufacturing", "Manufacturing/Industrial Plant", "manufacturingIndustrialPlant"},
	{"medicalOffice", "Medical Office", "medicalOffice"},
	{"mixedUse", "Mixed Use Property", "mixedUseProperty"},
	{"movieTheater", "Movie Theater", "movieTheater"},
	{"multifamily", "Multifamily Housing", "multifamilyHousing"},
	{"museum", "Museum", "museum"},
	{"warehouse", "Non-Refrigerated Warehouse", "nonRefrigeratedWarehouse"},
	{"office", "Office", "office"},
	{"other", "Other", "other"},
	{"otherEducation", "Other - Education", "otherEducation"},
	{"otherEntertainment", "Other - Entertainment/Public Assembly", "otherEntertainmentPublicAssembly"},
	{"otherLodging", "Other - Lodging/Residential", "otherLodgingResidential"},
	{"otherMall", "Other - Mall", "otherMall"},
	{"otherPublicServices", "Other - Public Services", "otherPublicServices"},
	{"otherRecreation", "Other - Recreation", "otherRecreation"},
	{"otherRestaurant", "Other - Restaurant/Bar", "otherRestaurantBar"},
	{"otherServices", "Other - Services", "otherServices"},
	{"specialtyHospital", "Other - Specialty Hospital", "otherSpecialtyHospital"},
	{"otherStadium", "Other - Stadium", "otherStadium"},
	{"otherTechnology", "Other - Technology/Science", "otherTechnologyScience"},
	{"otherUtility", "Other - Utility", "otherUtility"},
	{"outpatientRehabilitation", "Outpatient Rehabilitation/Physical Therapy", "outpatientRehabilitationPhysicalTherapy"},
	{"parking", "Parking", "parking"},
	{"performingArts", "Performing Arts", "performingArts"},
	{"personalServices", "Personal Services (Health/Beauty, Dry Cleaning, etc.)", "personalServices"},
	{"policeStation", "Police Station", "policeStation"},
	{"preschool", "Pre-school/Daycare", "preschoolDaycare"},
	{"prison", "Prison/Incarceration", "prisonIncarceration"},
	{"raceTrack", "Race Track", "raceTrack"},
	{"refrigeratedWarehouse", "Refrigerated Warehouse", "refrigeratedWarehouse"},
	{"repairServices", "Repair Services (Vehicle, Shoe, Locksmith, etc.)", "repairServices"},
	{"dormitory", "Residence Hall/Dormitory", "residenceHallDormitory"},
	{"residentialCare", "Residential Care Facility", "residentialCareFacility"},
	{"restaurant", "Restaurant", "restaurant"},
	{"retail", "Retail Store", "retail"},
	{"rollerRink", "Roller Rink", "rollerRink"},
	{"selfStorage", "Self-Storage Facility", "selfStorageFacility"},
	{"seniorLiving", "Senior Living Community", "seniorLivingCommunity"},
	{"singleFamilyHome", "Single Family Home", "singleFamilyHome"},
	{"socialHall", "Social/Meeting Hall", "socialMeetingHall"},
	{"stadiumClosed", "Stadium (Closed)", "stadiumClosed"},
	{"stadiumOpen", "Stadium (Open)", "stadiumOpen"},
	{"stripMall", "Strip Mall", "stripMall"},
	{"supermarket", "Supermarket/Grocery Store", "supermarket"},
	{"swimmingPool", "Swimming Pool", "swimmingPool"},
	{"transportationTerminal", "Transportation Terminal/Station", "transportationTerminalStation"},
	{"urgentCare", "Urgent Care/Clinic/Other Outpatient", "urgentCareClinicOtherOutpatient"},
	{"veterinaryOffice", "Veterinary Office", "veterinaryOffice"},
	{"vocationalSchool", "Vocational School", "vocationalSchool"},
	{"wastewaterTreatment", "Wastewater Treatment Plant", "wastewaterTreatmentPlant"},
	{"wholesaleClub", "Wholesale Club/Supercenter", "wholesaleClubSupercenter"},
	{"worship", "Worship Facility", "worshipFacility"},
	{"zoo", "Zoo", "zoo"},
}

var useIndex = map[Vocabulary]map[string]useType{
	Buildee: indexUses(Buildee),
	PM:      indexUses(PM),
	PMXML:   indexUses(PMXML),
}

func indexUses(v Vocabulary) map[string]useType {
	index := make(map[string]useType, len(useTypes))
	for _, u := range useTypes {
		if _, seen := index[u.in(v)]; !seen {
			index[u.in(v)] = u
		}
	}
	return index
}

// GetBuildingUse translates a building use from one vocabulary to another.
// Unknown values translate to the office use.
func GetBuildingUse(origin, target Vocabulary, value string) string {
	if origin == Buildee && value == microbreweries.Buildee {
		return microbreweries.in(target)
	}
	use, ok := useIndex[origin][value]
	if !ok {
		use = defaultUse
	}
	return use.in(target)
}
