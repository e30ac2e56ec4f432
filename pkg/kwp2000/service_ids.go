package kwp2000

const (
	START_DIAGNOSTIC_SESSION = 0x10
	ECU_RESET                = 0x11
	READ_ECU_IDENTIFICATION  = 0x1A

	/* DATA TRANSMISSION FUNCTIONAL UNIT */
	READ_DATA_BY_LOCAL_IDENTIFIER       = 0x21
	READ_DATA_BY_COMMON_IDENTIFIER      = 0x22
	READ_MEMORY_BY_ADDRESS              = 0x23
	SET_DATA_RATES                      = 0x26
	DYNAMICALLY_DEFINE_LOCAL_IDENTIFIER = 0x2C
	WRITE_DATA_BY_COMMON_IDENTIFIER     = 0x2E
	WRITE_DATA_BY_LOCAL_IDENTIFIER      = 0x3B
	WRITE_MEMORY_BY_ADDRESS             = 0x3D

	/* STORED DATA TRANSMISSION FUNCTIONAL UNIT */
	READ_DIAGNOSTIC_TROUBLE_CODES           = 0x13
	CLEAR_DIAGNOSTIC_INFORMATION            = 0x14
	READ_STATUS_OF_DIAGNOSTIC_TROUBLE_CODES = 0x17
	READ_DIAGNOSTIC_TROUBLE_CODES_BY_STATUS = 0x18

	/* REMOTE ACTIVATION OF ROUTINE FUNCTIONAL UNIT */
	START_ROUTINE_BY_LOCAL_IDENTIFIER           = 0x31
	REQUEST_ROUTINE_RESULTS_BY_LOCAL_IDENTIFIER = 0x33

	SECURITY_ACCESS                 = 0x27
	TESTER_PRESENT                  = 0x3E
	STOP_REPEATED_DATA_TRANSMISSION = 0x25
	START_COMMUNICATION             = 0x81
	STOP_COMMUNICATION              = 0x82
	ACCESS_TIMING_PARAMETERS        = 0x83

	NEGATIVE_RESPONSE = 0x7F
	POSITIVE_RESPONSE = 0x40
)

func TranslateServiceCode(sid byte) string {
	switch sid {
	case START_DIAGNOSTIC_SESSION:
		return "StartDiagnosticSession"
	case ECU_RESET:
		return "ECUReset"
	case READ_ECU_IDENTIFICATION:
		return "ReadECUIdentification"
	case READ_DATA_BY_LOCAL_IDENTIFIER:
		return "ReadDataByLocalIdentifier"
	case READ_DATA_BY_COMMON_IDENTIFIER:
		return "ReadDataByCommonIdentifier"
	case READ_MEMORY_BY_ADDRESS:
		return "ReadMemoryByAddress"
	case SET_DATA_RATES:
		return "SetDataRates"
	case DYNAMICALLY_DEFINE_LOCAL_IDENTIFIER:
		return "DynamicallyDefineLocalIdentifier"
	case WRITE_DATA_BY_COMMON_IDENTIFIER:
		return "WriteDataByCommonIdentifier"
	case WRITE_DATA_BY_LOCAL_IDENTIFIER:
		return "WriteDataByLocalIdentifier"
	case WRITE_MEMORY_BY_ADDRESS:
		return "WriteMemoryByAddress"
	case READ_DIAGNOSTIC_TROUBLE_CODES:
		return "ReadDiagnosticTroubleCodes"
	case CLEAR_DIAGNOSTIC_INFORMATION:
		return "ClearDiagnosticInformation"
	case READ_STATUS_OF_DIAGNOSTIC_TROUBLE_CODES:
		return "ReadStatusOfDiagnosticTroubleCodes"
	case READ_DIAGNOSTIC_TROUBLE_CODES_BY_STATUS:
		return "ReadDiagnosticTroubleCodesByStatus"
	case START_ROUTINE_BY_LOCAL_IDENTIFIER:
		return "StartRoutineByLocalIdentifier"
	case REQUEST_ROUTINE_RESULTS_BY_LOCAL_IDENTIFIER:
		return "RequestRoutineResultsByLocalIdentifier"
	case SECURITY_ACCESS:
		return "SecurityAccess"
	case TESTER_PRESENT:
		return "TesterPresent"
	case STOP_REPEATED_DATA_TRANSMISSION:
		return "StopRepeatedDataTransmission"
	case START_COMMUNICATION:
		return "StartCommunication"
	case STOP_COMMUNICATION:
		return "StopCommunication"
	case ACCESS_TIMING_PARAMETERS:
		return "AccessTimingParameters"
	default:
		return "Unknown"
	}
}
