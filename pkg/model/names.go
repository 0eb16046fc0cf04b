package model

// Service type names referenced by the model.
const (
	ServiceNameAccessoryInformation = "AccessoryInformation"
	ServiceNameProtocolInformation  = "ProtocolInformation"
	ServiceNameLightbulb            = "Lightbulb"
	ServiceNameOutlet               = "Outlet"
	ServiceNameThermostat           = "Thermostat"
	ServiceNameTelevision           = "Television"
	ServiceNameTelevisionSpeaker    = "TelevisionSpeaker"
	ServiceNameInputSource          = "InputSource"
)

// Characteristic type names referenced by the model.
const (
	CharIdentify         = "Identify"
	CharManufacturer     = "Manufacturer"
	CharModel            = "Model"
	CharName             = "Name"
	CharSerialNumber     = "SerialNumber"
	CharFirmwareRevision = "FirmwareRevision"
	CharVersion          = "Version"

	CharHue        = "Hue"
	CharSaturation = "Saturation"
	CharBrightness = "Brightness"
	CharColorRed   = "ColorRed"
	CharColorGreen = "ColorGreen"
	CharColorBlue  = "ColorBlue"

	CharRemoteKey              = "RemoteKey"
	CharPowerModeSelection     = "PowerModeSelection"
	CharRemoteKeyRewind        = "RemoteKeyRewind"
	CharRemoteKeyFastForward   = "RemoteKeyFastForward"
	CharRemoteKeyNextTrack     = "RemoteKeyNextTrack"
	CharRemoteKeyPreviousTrack = "RemoteKeyPreviousTrack"
	CharRemoteKeyArrowUp       = "RemoteKeyArrowUp"
	CharRemoteKeyArrowDown     = "RemoteKeyArrowDown"
	CharRemoteKeyArrowLeft     = "RemoteKeyArrowLeft"
	CharRemoteKeyArrowRight    = "RemoteKeyArrowRight"
	CharRemoteKeySelect        = "RemoteKeySelect"
	CharRemoteKeyBack          = "RemoteKeyBack"
	CharRemoteKeyExit          = "RemoteKeyExit"
	CharRemoteKeyPlayPause     = "RemoteKeyPlayPause"
	CharRemoteKeyInformation   = "RemoteKeyInformation"
	CharPowerModeSelectionShow = "PowerModeSelectionShow"
	CharPowerModeSelectionHide = "PowerModeSelectionHide"

	CharVolumeSelector  = "VolumeSelector"
	CharVolumeIncrement = "VolumeIncrement"
	CharVolumeDecrement = "VolumeDecrement"
)
