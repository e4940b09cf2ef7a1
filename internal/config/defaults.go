package config

const (
	defaultMountDir  = "~/.local/share/sipbuilder/storage"
	defaultOutputDir = "sip"
	defaultLogDir    = "~/.local/share/sipbuilder/logs"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"

	defaultOutputRetries      = 10
	defaultSchemaFetchTimeout = 30

	defaultMETSXSD          = "https://developers.exlibrisgroup.com/wp-content/uploads/2022/06/mets_rosetta.xsd"
	defaultMETSSchemaName   = "Ex Libris, Rosetta METS v7.3"
	defaultMETSFallbackXSD  = "builtin:mets.xsd"
	defaultMETSFallbackName = "Rosetta METS (fallback)"

	defaultDCXMLXSD        = "builtin:dc.xsd"
	defaultDCXMLSchemaName = "dc.xml record schema"

	defaultSigPropXSD        = "builtin:premis.xsd"
	defaultSigPropSchemaName = "PREMIS v3 significant properties"

	defaultXMLSchemaVersion = "1.0"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			MountDir:  defaultMountDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Validation: Validation{
			METS: METSSchema{
				Schema: Schema{
					Active:           true,
					XSD:              defaultMETSXSD,
					XMLSchemaVersion: defaultXMLSchemaVersion,
					Name:             defaultMETSSchemaName,
					Mandatory:        true,
				},
				FallbackXSD:              defaultMETSFallbackXSD,
				FallbackXMLSchemaVersion: defaultXMLSchemaVersion,
				FallbackName:             defaultMETSFallbackName,
			},
			DCXML: Schema{
				Active:           true,
				XSD:              defaultDCXMLXSD,
				XMLSchemaVersion: defaultXMLSchemaVersion,
				Name:             defaultDCXMLSchemaName,
				Mandatory:        true,
			},
			SigProp: Schema{
				Active:           false,
				XSD:              defaultSigPropXSD,
				XMLSchemaVersion: defaultXMLSchemaVersion,
				Name:             defaultSigPropSchemaName,
				Mandatory:        false,
			},
			SchemaFetchTimeout: defaultSchemaFetchTimeout,
		},
		Build: Build{
			OutputRetries: defaultOutputRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
